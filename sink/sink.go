// Package sink defines where converted images and annotations go. Implementations live in
// subpackages and register themselves by sink type.
package sink

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/datasetninja/modes-cattle/annotation"
)

// A Sink receives projects, datasets, images and annotations. Calls are made sequentially by
// one goroutine; implementations need not be safe for concurrent use.
type Sink interface {
	// CreateProject creates a project named after spec.Name, renamed when the name is taken. The
	// project meta is stored and images are grouped by spec.GroupByTag when it is set.
	CreateProject(ctx context.Context, spec ProjectSpec) (*Project, error)
	// CreateDataset creates a dataset inside project, renamed when the name is taken.
	CreateDataset(ctx context.Context, project *Project, name string) (*Dataset, error)
	// UploadImages uploads the files at paths under the matching names in one batch. The
	// returned infos are in input order.
	UploadImages(ctx context.Context, dataset *Dataset, names, paths []string) ([]ImageInfo, error)
	// UploadAnnotations attaches anns[i] to imageIDs[i].
	UploadAnnotations(ctx context.Context, dataset *Dataset, imageIDs []string, anns []*annotation.Annotation) error
	// Close releases connections.
	Close(ctx context.Context) error
}

// Project is a created project.
type Project struct {
	ID   string
	Name string
	URL  string
}

// Dataset is a created dataset.
type Dataset struct {
	ID        string
	Name      string
	ProjectID string
}

// ImageInfo is an uploaded image.
type ImageInfo struct {
	ID   string
	Name string
}

// Shapes and tag value types understood by the sinks.
const (
	ShapeBitmap        = "bitmap"
	TagValueAnyString  = "any_string"
	ProjectTypeImages  = "images"
	defaultColorFormat = "#%02X%02X%02X"
)

// ObjClass is an object class of a project.
type ObjClass struct {
	Title string `json:"title"`
	Shape string `json:"shape"`
	Color string `json:"color"`
}

// TagMeta declares a tag of a project.
type TagMeta struct {
	Name      string `json:"name"`
	ValueType string `json:"value_type"`
	Color     string `json:"color"`
}

// ProjectMeta lists the object classes and tags of a project.
type ProjectMeta struct {
	Classes     []ObjClass `json:"classes"`
	TagMetas    []TagMeta  `json:"tags"`
	ProjectType string     `json:"projectType,omitempty"`
}

// NewProjectMeta returns the meta of a converted project: one bitmap class and one free text
// tag.
func NewProjectMeta(className, tagName string) ProjectMeta {
	return ProjectMeta{
		Classes:     []ObjClass{{Title: className, Shape: ShapeBitmap, Color: ColorFor(className)}},
		TagMetas:    []TagMeta{{Name: tagName, ValueType: TagValueAnyString, Color: ColorFor(tagName)}},
		ProjectType: ProjectTypeImages,
	}
}

// ProjectSpec is what CreateProject is asked to create.
type ProjectSpec struct {
	Name       string
	Meta       ProjectMeta
	GroupByTag string
}

// ColorFor returns a stable hex color for a class or tag name.
func ColorFor(name string) string {
	h := fnv.New32a()
	//nolint:errcheck
	h.Write([]byte(name))
	sum := h.Sum32()
	return fmt.Sprintf(defaultColorFormat, uint8(sum>>16), uint8(sum>>8), uint8(sum))
}

// FreeName returns name if it is not taken, otherwise the first of name_001, name_002, ... that
// is free.
func FreeName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s_%03d", name, suffix)
		if !taken[candidate] {
			return candidate
		}
	}
}
