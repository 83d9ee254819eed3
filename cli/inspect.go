package cli

import (
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/datasetninja/modes-cattle/dataset"
)

func presence(path string) string {
	if path == "" {
		return "-"
	}
	return "yes"
}

// InspectAction prints one row per image group and counts the files of each folder.
func InspectAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if root := c.Path(flagSourceRoot); root != "" {
		cfg.SourceRoot = root
	}
	if err := cfg.Ensure(); err != nil {
		return err
	}

	index, err := dataset.BuildIndex(dataset.LayoutFromConfig(cfg), logger)
	if err != nil {
		return err
	}

	groups := table.NewWriter()
	groups.AppendHeader(table.Row{"#", "Group", "Color", "Depth", "Mask"})
	for i, group := range index.Groups() {
		groups.AppendRow(table.Row{i + 1, group.ID, presence(group.Color), presence(group.Depth), presence(group.Mask)})
	}
	all := index.Groups()
	groups.AppendFooter(table.Row{
		"", index.Len(),
		lo.CountBy(all, func(g *dataset.Group) bool { return g.Color != "" }),
		lo.CountBy(all, func(g *dataset.Group) bool { return g.Depth != "" }),
		lo.CountBy(all, func(g *dataset.Group) bool { return g.Mask != "" }),
	})
	printf(c.App.Writer, "%s", groups.Render())

	folders := table.NewWriter()
	folders.AppendHeader(table.Row{"Folder", "Files"})
	for _, folder := range []string{cfg.ImagesFolder, cfg.DepthsFolder, cfg.MasksFolder} {
		count, err := dataset.CountFiles(filepath.Join(cfg.SourceRoot, folder), "")
		if err != nil {
			warningf(c.App.ErrWriter, "%v", err)
			continue
		}
		folders.AppendRow(table.Row{folder, count})
	}
	printf(c.App.Writer, "%s", folders.Render())

	if incomplete := lo.CountBy(all, func(g *dataset.Group) bool { return !g.Complete() }); incomplete > 0 {
		warningf(c.App.ErrWriter, "%d groups miss a color or depth image", incomplete)
	}
	return nil
}
