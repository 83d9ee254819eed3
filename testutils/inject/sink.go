package inject

import (
	"context"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/sink"
)

// Sink is an injected annotation sink.
type Sink struct {
	sink.Sink
	CreateProjectFunc     func(ctx context.Context, spec sink.ProjectSpec) (*sink.Project, error)
	CreateDatasetFunc     func(ctx context.Context, project *sink.Project, name string) (*sink.Dataset, error)
	UploadImagesFunc      func(ctx context.Context, dataset *sink.Dataset, names, paths []string) ([]sink.ImageInfo, error)
	UploadAnnotationsFunc func(ctx context.Context, dataset *sink.Dataset, imageIDs []string, anns []*annotation.Annotation) error
	CloseFunc             func(ctx context.Context) error
}

// NewSink returns a new injected sink.
func NewSink() *Sink {
	return &Sink{}
}

// CreateProject calls the injected CreateProject or the real version.
func (s *Sink) CreateProject(ctx context.Context, spec sink.ProjectSpec) (*sink.Project, error) {
	if s.CreateProjectFunc == nil {
		return s.Sink.CreateProject(ctx, spec)
	}
	return s.CreateProjectFunc(ctx, spec)
}

// CreateDataset calls the injected CreateDataset or the real version.
func (s *Sink) CreateDataset(ctx context.Context, project *sink.Project, name string) (*sink.Dataset, error) {
	if s.CreateDatasetFunc == nil {
		return s.Sink.CreateDataset(ctx, project, name)
	}
	return s.CreateDatasetFunc(ctx, project, name)
}

// UploadImages calls the injected UploadImages or the real version.
func (s *Sink) UploadImages(ctx context.Context, dataset *sink.Dataset, names, paths []string) ([]sink.ImageInfo, error) {
	if s.UploadImagesFunc == nil {
		return s.Sink.UploadImages(ctx, dataset, names, paths)
	}
	return s.UploadImagesFunc(ctx, dataset, names, paths)
}

// UploadAnnotations calls the injected UploadAnnotations or the real version.
func (s *Sink) UploadAnnotations(
	ctx context.Context, dataset *sink.Dataset, imageIDs []string, anns []*annotation.Annotation,
) error {
	if s.UploadAnnotationsFunc == nil {
		return s.Sink.UploadAnnotations(ctx, dataset, imageIDs, anns)
	}
	return s.UploadAnnotationsFunc(ctx, dataset, imageIDs, anns)
}

// Close calls the injected Close or the real version.
func (s *Sink) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Sink == nil {
			return nil
		}
		return s.Sink.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
