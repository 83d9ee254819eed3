// Package local implements a sink that writes a Supervisely format project directory. It backs
// dry runs and offline exports.
package local

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/sink"
	"github.com/datasetninja/modes-cattle/utils"
)

// Type is the sink type of this package.
const Type = config.SinkTypeLocal

const (
	metaFileName = "meta.json"
	imagesDir    = "img"
	annDir       = "ann"
)

func init() {
	sink.Register(Type, sink.Registration[Config]{
		Constructor: func(ctx context.Context, conf Config, logger logging.Logger) (sink.Sink, error) {
			return New(conf, logger)
		},
	})
}

// Config holds the attributes of a local sink.
type Config struct {
	Dir string `json:"dir"`
}

// Validate ensures the output directory is set.
func (c Config) Validate(path string) error {
	if c.Dir == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "dir")
	}
	return nil
}

type multiView struct {
	Enabled  bool   `json:"enabled"`
	TagName  string `json:"tagName"`
	IsSynced bool   `json:"isSynced"`
}

type projectSettings struct {
	MultiView multiView `json:"multiView"`
}

type metaFile struct {
	sink.ProjectMeta
	ProjectSettings *projectSettings `json:"projectSettings,omitempty"`
}

type localSink struct {
	dir    string
	logger logging.Logger
	// image id to path of the copied image, per dataset id.
	images map[string]map[string]string
}

// New returns a sink writing projects below conf.Dir.
func New(conf Config, logger logging.Logger) (sink.Sink, error) {
	if err := os.MkdirAll(conf.Dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create output directory %q", conf.Dir)
	}
	return &localSink{dir: conf.Dir, logger: logger, images: map[string]map[string]string{}}, nil
}

func (s *localSink) takenNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %q", dir)
	}
	taken := make(map[string]bool, len(entries))
	for _, entry := range entries {
		taken[entry.Name()] = true
	}
	return taken, nil
}

func (s *localSink) CreateProject(ctx context.Context, spec sink.ProjectSpec) (*sink.Project, error) {
	taken, err := s.takenNames(s.dir)
	if err != nil {
		return nil, err
	}
	name := sink.FreeName(spec.Name, taken)
	projectDir, err := utils.SafeJoinDir(s.dir, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create project directory %q", projectDir)
	}

	meta := metaFile{ProjectMeta: spec.Meta}
	if spec.GroupByTag != "" {
		meta.ProjectSettings = &projectSettings{MultiView: multiView{Enabled: true, TagName: spec.GroupByTag}}
	}
	if err := writeJSON(filepath.Join(projectDir, metaFileName), meta); err != nil {
		return nil, err
	}

	s.logger.Infow("created project", "name", name, "dir", projectDir)
	return &sink.Project{ID: projectDir, Name: name, URL: "file://" + projectDir}, nil
}

func (s *localSink) CreateDataset(ctx context.Context, project *sink.Project, name string) (*sink.Dataset, error) {
	taken, err := s.takenNames(project.ID)
	if err != nil {
		return nil, err
	}
	taken[metaFileName] = true
	name = sink.FreeName(name, taken)
	datasetDir, err := utils.SafeJoinDir(project.ID, name)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{imagesDir, annDir} {
		if err := os.MkdirAll(filepath.Join(datasetDir, sub), 0o750); err != nil {
			return nil, errors.Wrapf(err, "cannot create dataset directory %q", datasetDir)
		}
	}
	s.images[datasetDir] = map[string]string{}
	return &sink.Dataset{ID: datasetDir, Name: name, ProjectID: project.ID}, nil
}

func (s *localSink) UploadImages(ctx context.Context, dataset *sink.Dataset, names, paths []string) ([]sink.ImageInfo, error) {
	if len(names) != len(paths) {
		return nil, utils.NewLengthMismatchError("names", len(names), "paths", len(paths))
	}
	images, ok := s.images[dataset.ID]
	if !ok {
		return nil, errors.Errorf("unknown dataset %q", dataset.ID)
	}

	infos := make([]sink.ImageInfo, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dst, err := utils.SafeJoinDir(filepath.Join(dataset.ID, imagesDir), name)
		if err != nil {
			return nil, err
		}
		if err := copyFile(paths[i], dst); err != nil {
			return nil, err
		}
		id := uuid.NewString()
		images[id] = dst
		infos = append(infos, sink.ImageInfo{ID: id, Name: name})
	}
	return infos, nil
}

func (s *localSink) UploadAnnotations(
	ctx context.Context, dataset *sink.Dataset, imageIDs []string, anns []*annotation.Annotation,
) error {
	if len(imageIDs) != len(anns) {
		return utils.NewLengthMismatchError("image ids", len(imageIDs), "annotations", len(anns))
	}
	images := s.images[dataset.ID]
	for i, id := range imageIDs {
		imagePath, ok := images[id]
		if !ok {
			return errors.Errorf("unknown image id %q", id)
		}
		annPath := filepath.Join(dataset.ID, annDir, filepath.Base(imagePath)+".json")
		if err := writeJSON(annPath, anns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *localSink) Close(ctx context.Context) error {
	return nil
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "cannot encode %q", path)
	}
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	//nolint:gosec
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read image %q", src)
	}
	defer goutils.UncheckedErrorFunc(in.Close)

	//nolint:gosec
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", dst)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "cannot write %q", dst)
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "cannot copy %q to %q", src, dst)
	}
	return nil
}
