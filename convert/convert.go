// Package convert uploads a raw MoDES dataset to a sink: one project, one dataset, every color
// and depth image in fixed size batches, each batch followed by its annotations.
package convert

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/dataset"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/sink"
	"github.com/datasetninja/modes-cattle/utils"
)

// Stats summarizes a finished run.
type Stats struct {
	Folders int
	Batches int
	Images  int
	Labels  int
}

// Converter runs one conversion. It does not own the sink and never closes it.
type Converter struct {
	cfg      *config.Config
	sink     sink.Sink
	builder  *annotation.Builder
	logger   logging.Logger
	progress Progress
}

// Option customizes a Converter.
type Option func(*Converter)

// WithProgress reports batch progress to p instead of the log.
func WithProgress(p Progress) Option {
	return func(c *Converter) {
		c.progress = p
	}
}

// New returns a converter uploading the dataset described by cfg to s.
func New(cfg *config.Config, s sink.Sink, logger logging.Logger, opts ...Option) *Converter {
	c := &Converter{
		cfg:     cfg,
		sink:    s,
		builder: annotation.NewBuilder(cfg.ClassName, cfg.TagName, logger.Sublogger("annotation")),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.progress == nil {
		c.progress = NewLogProgress(logger)
	}
	return c
}

// Run converts the dataset and returns the created project.
func (c *Converter) Run(ctx context.Context) (*sink.Project, error) {
	project, _, err := c.RunWithStats(ctx)
	return project, err
}

// RunWithStats is Run that also reports what was uploaded. The stats are valid up to the point of
// failure when an error is returned.
func (c *Converter) RunWithStats(ctx context.Context) (*sink.Project, Stats, error) {
	var stats Stats

	project, err := c.sink.CreateProject(ctx, sink.ProjectSpec{
		Name:       c.cfg.ProjectName,
		Meta:       sink.NewProjectMeta(c.cfg.ClassName, c.cfg.TagName),
		GroupByTag: c.cfg.TagName,
	})
	if err != nil {
		return nil, stats, errors.Wrap(err, "cannot create project")
	}
	c.logger.Infow("created project", "id", project.ID, "name", project.Name)

	ds, err := c.sink.CreateDataset(ctx, project, c.cfg.DatasetName)
	if err != nil {
		return project, stats, errors.Wrap(err, "cannot create dataset")
	}
	c.logger.Infow("created dataset", "id", ds.ID, "name", ds.Name)

	index, err := dataset.BuildIndex(dataset.LayoutFromConfig(c.cfg), c.logger.Sublogger("dataset"))
	if err != nil {
		return project, stats, err
	}

	for _, folder := range c.cfg.SourceFolders() {
		if err := c.uploadFolder(ctx, ds, index, folder, &stats); err != nil {
			return project, stats, err
		}
		stats.Folders++
	}

	c.logger.Infow("conversion finished", "project", project.Name, "url", project.URL,
		"images", stats.Images, "labels", stats.Labels, "batches", stats.Batches)
	return project, stats, nil
}

func (c *Converter) uploadFolder(
	ctx context.Context, ds *sink.Dataset, index *dataset.Index, folder string, stats *Stats,
) error {
	names := index.Files(folder)
	dir := index.Layout().FolderPath(folder)
	prefix := filepath.Base(folder) + "_"

	c.progress.Start(len(names), "uploading "+folder)
	defer c.progress.Done()

	for i, batch := range lo.Chunk(names, c.cfg.BatchSize) {
		if err := c.uploadBatch(ctx, ds, index, dir, prefix, batch, stats); err != nil {
			return errors.Wrapf(err, "folder %q batch %d", folder, i)
		}
		stats.Batches++
		c.progress.Advance(len(batch))
	}
	return nil
}

func (c *Converter) uploadBatch(
	ctx context.Context, ds *sink.Dataset, index *dataset.Index, dir, prefix string, batch []string, stats *Stats,
) error {
	paths := lo.Map(batch, func(name string, _ int) string { return filepath.Join(dir, name) })
	dstNames := lo.Map(batch, func(name string, _ int) string { return prefix + name })

	infos, err := c.sink.UploadImages(ctx, ds, dstNames, paths)
	if err != nil {
		return errors.Wrap(err, "cannot upload images")
	}
	if len(infos) != len(batch) {
		return utils.NewLengthMismatchError("images sent", len(batch), "images uploaded", len(infos))
	}
	stats.Images += len(infos)

	anns := make([]*annotation.Annotation, 0, len(batch))
	for i, name := range batch {
		group, ok := index.Lookup(name)
		if !ok {
			return errors.Errorf("file %q is not indexed", name)
		}
		ann, err := c.builder.Build(group, paths[i])
		if err != nil {
			return errors.Wrapf(err, "cannot build annotation of %q", name)
		}
		stats.Labels += len(ann.Labels)
		anns = append(anns, ann)
	}

	ids := lo.Map(infos, func(info sink.ImageInfo, _ int) string { return info.ID })
	if err := c.sink.UploadAnnotations(ctx, ds, ids, anns); err != nil {
		return errors.Wrap(err, "cannot upload annotations")
	}
	return nil
}
