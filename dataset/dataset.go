// Package dataset lists the raw MoDES files and pairs color, depth and mask images into groups.
package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/utils"
)

// Layout is the on-disk shape of a raw dataset.
type Layout struct {
	Root         string
	ImagesFolder string
	DepthsFolder string
	MasksFolder  string
	ImagePrefix  string
	MaskPrefix   string
}

// LayoutFromConfig returns the layout described by cfg.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		Root:         cfg.SourceRoot,
		ImagesFolder: cfg.ImagesFolder,
		DepthsFolder: cfg.DepthsFolder,
		MasksFolder:  cfg.MasksFolder,
		ImagePrefix:  cfg.ImagePrefix,
		MaskPrefix:   cfg.MaskPrefix,
	}
}

// FolderPath joins the root with a folder name.
func (l Layout) FolderPath(folder string) string {
	return filepath.Join(l.Root, folder)
}

// ListImages returns the names of the image files directly inside dir, sorted. Hidden files,
// directories and files without an image extension are skipped. A missing folder is an error.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list folder %q", dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() || !utils.IsImagePath(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GroupID is the identifier shared by a color image and its depth image: the file name without
// directory and extension. "fgbg_0001.png" belongs to group "fgbg_0001".
func GroupID(filename string) string {
	return utils.FileStem(filename)
}

// MaskName returns the name of the mask file for an image: the image prefix is replaced by the
// mask prefix and the rest, extension included, is kept. "fgbg_0001.png" maps to
// "mask_0001.png". The boolean is false when filename does not start with imagePrefix; the first
// len(imagePrefix) characters are replaced anyway.
func MaskName(filename, imagePrefix, maskPrefix string) (string, bool) {
	if strings.HasPrefix(filename, imagePrefix) {
		return maskPrefix + filename[len(imagePrefix):], true
	}
	if len(filename) <= len(imagePrefix) {
		return maskPrefix, false
	}
	return maskPrefix + filename[len(imagePrefix):], false
}

// CountFiles counts the files under dir, recursively, whose extension matches ext. An empty ext
// counts every file.
func CountFiles(dir, ext string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext == "" || strings.EqualFold(filepath.Ext(path), ext) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "cannot count files in %q", dir)
	}
	return count, nil
}

// Group holds the paths of the files sharing one group id. Paths are empty when a file is
// absent.
type Group struct {
	ID    string
	Color string
	Depth string
	Mask  string
}

// Complete reports whether the group has both a color and a depth image.
func (g *Group) Complete() bool {
	return g.Color != "" && g.Depth != ""
}

// Index maps group ids to groups. It is built once per run.
type Index struct {
	layout   Layout
	groups   map[string]*Group
	byFolder map[string][]string
}

// BuildIndex lists the color and depth folders of layout and resolves the mask of each image.
func BuildIndex(layout Layout, logger logging.Logger) (*Index, error) {
	idx := &Index{
		layout:   layout,
		groups:   map[string]*Group{},
		byFolder: map[string][]string{},
	}
	masksPath := layout.FolderPath(layout.MasksFolder)

	for _, folder := range []string{layout.ImagesFolder, layout.DepthsFolder} {
		names, err := ListImages(layout.FolderPath(folder))
		if err != nil {
			return nil, err
		}
		idx.byFolder[folder] = names

		for _, name := range names {
			id := GroupID(name)
			group, ok := idx.groups[id]
			if !ok {
				group = &Group{ID: id}
				idx.groups[id] = group
			}

			path := filepath.Join(layout.FolderPath(folder), name)
			if folder == layout.ImagesFolder {
				group.Color = path
			} else {
				group.Depth = path
			}

			maskName, onPattern := MaskName(name, layout.ImagePrefix, layout.MaskPrefix)
			if !onPattern {
				logger.Warnw("file name does not start with the image prefix",
					"file", name, "prefix", layout.ImagePrefix, "mask", maskName)
			}
			if group.Mask == "" {
				if maskPath := filepath.Join(masksPath, maskName); utils.FileExists(maskPath) {
					group.Mask = maskPath
				}
			}
		}
	}

	incomplete := lo.Filter(idx.Groups(), func(g *Group, _ int) bool { return !g.Complete() })
	for _, g := range incomplete {
		logger.Debugw("group is missing an image", "group", g.ID, "color", g.Color, "depth", g.Depth)
	}
	logger.Infow("indexed dataset",
		"groups", len(idx.groups),
		"incomplete", len(incomplete),
		"with_mask", lo.CountBy(idx.Groups(), func(g *Group) bool { return g.Mask != "" }))
	return idx, nil
}

// Layout returns the layout the index was built from.
func (idx *Index) Layout() Layout {
	return idx.layout
}

// Groups returns every group sorted by id.
func (idx *Index) Groups() []*Group {
	groups := lo.Values(idx.groups)
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

// Lookup returns the group a file of the color or depth folder belongs to.
func (idx *Index) Lookup(filename string) (*Group, bool) {
	group, ok := idx.groups[GroupID(filename)]
	return group, ok
}

// Files returns the sorted image names of a source folder.
func (idx *Index) Files(folder string) []string {
	return idx.byFolder[folder]
}

// Len is the number of groups.
func (idx *Index) Len() int {
	return len(idx.groups)
}
