package annotation

import (
	"github.com/pkg/errors"

	"github.com/datasetninja/modes-cattle/dataset"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/rimage"
)

// Builder turns a group and the uploaded image into an Annotation.
type Builder struct {
	ClassName string
	TagName   string
	Logger    logging.Logger
}

// NewBuilder returns a builder labeling objects as className and tagging images with tagName.
func NewBuilder(className, tagName string, logger logging.Logger) *Builder {
	return &Builder{ClassName: className, TagName: tagName, Logger: logger}
}

// Build returns the annotation of the image at imagePath, a member of group.
//
// Every annotation carries exactly one tag, TagName with the group id as value. When the group
// has a mask, the cleaned mask becomes a single label and its dimensions become the annotation
// size. Without a mask there are no labels and the size is read from the image header.
func (b *Builder) Build(group *dataset.Group, imagePath string) (*Annotation, error) {
	ann := &Annotation{
		Tags: []Tag{{Name: b.TagName, Value: group.ID}},
	}

	if group.Mask == "" {
		size, err := rimage.ReadImageSize(imagePath)
		if err != nil {
			return nil, err
		}
		ann.Size = SizeOf(size)
		return ann, nil
	}

	img, err := rimage.ReadImageFromFile(group.Mask)
	if err != nil {
		return nil, err
	}
	mask := rimage.CleanMask(img)
	ann.Size = SizeOf(mask.Size())

	if imageSize, err := rimage.ReadImageSize(imagePath); err != nil {
		return nil, err
	} else if imageSize != mask.Size() {
		b.Logger.Warnw("mask size differs from image size, using mask size",
			"image", imagePath, "image_size", imageSize.String(),
			"mask", group.Mask, "mask_size", mask.Size().String())
	}

	bitmap, err := NewBitmap(mask)
	if errors.Is(err, ErrEmptyBitmap) {
		b.Logger.Warnw("mask has no foreground, image gets no label", "mask", group.Mask)
		return ann, nil
	}
	if err != nil {
		return nil, err
	}
	ann.Labels = []Label{{ClassTitle: b.ClassName, Bitmap: bitmap}}
	return ann, nil
}
