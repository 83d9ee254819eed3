// Package annotation builds per-image annotations: the image size, the bitmap labels derived
// from the cleaned mask and the group tag.
package annotation

import (
	"encoding/json"
	"image"

	"github.com/pkg/errors"
)

// Size is an image size in pixels.
type Size struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// SizeOf converts a point holding a width and height.
func SizeOf(p image.Point) Size {
	return Size{Height: p.Y, Width: p.X}
}

// Tag is a name/value tag on an image.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Label is one annotated object.
type Label struct {
	ClassTitle string
	Bitmap     *Bitmap
}

// Annotation is everything attached to one uploaded image.
type Annotation struct {
	Size   Size
	Labels []Label
	Tags   []Tag
}

// TagValue returns the value of the first tag named name.
func (a *Annotation) TagValue(name string) (string, bool) {
	for _, tag := range a.Tags {
		if tag.Name == name {
			return tag.Value, true
		}
	}
	return "", false
}

// GeometryBitmap is the only geometry produced by the converter.
const GeometryBitmap = "bitmap"

type bitmapJSON struct {
	Data   string `json:"data"`
	Origin [2]int `json:"origin"`
}

type objectJSON struct {
	ClassTitle   string     `json:"classTitle"`
	Description  string     `json:"description"`
	GeometryType string     `json:"geometryType"`
	Tags         []Tag      `json:"tags"`
	Bitmap       bitmapJSON `json:"bitmap"`
}

type annotationJSON struct {
	Description string       `json:"description"`
	Size        Size         `json:"size"`
	Tags        []Tag        `json:"tags"`
	Objects     []objectJSON `json:"objects"`
}

// MarshalJSON encodes the annotation in the Supervisely image annotation format.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	out := annotationJSON{
		Size:    a.Size,
		Tags:    a.Tags,
		Objects: make([]objectJSON, 0, len(a.Labels)),
	}
	if out.Tags == nil {
		out.Tags = []Tag{}
	}
	for _, label := range a.Labels {
		data, err := EncodeBitmapData(label.Bitmap.Mask)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode %q label", label.ClassTitle)
		}
		out.Objects = append(out.Objects, objectJSON{
			ClassTitle:   label.ClassTitle,
			GeometryType: GeometryBitmap,
			Tags:         []Tag{},
			Bitmap: bitmapJSON{
				Data:   data,
				Origin: [2]int{label.Bitmap.Origin.X, label.Bitmap.Origin.Y},
			},
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the Supervisely image annotation format. Only bitmap objects are
// supported.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var in annotationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	a.Size = in.Size
	a.Tags = in.Tags
	a.Labels = nil
	for _, obj := range in.Objects {
		if obj.GeometryType != GeometryBitmap {
			return errors.Errorf("unsupported geometry %q for class %q", obj.GeometryType, obj.ClassTitle)
		}
		mask, err := DecodeBitmapData(obj.Bitmap.Data)
		if err != nil {
			return errors.Wrapf(err, "cannot decode %q label", obj.ClassTitle)
		}
		a.Labels = append(a.Labels, Label{
			ClassTitle: obj.ClassTitle,
			Bitmap: &Bitmap{
				Origin: image.Point{X: obj.Bitmap.Origin[0], Y: obj.Bitmap.Origin[1]},
				Mask:   mask,
			},
		})
	}
	return nil
}
