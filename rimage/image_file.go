package rimage

import (
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	goutils "go.viam.com/utils"
)

// ReadImageFromFile extracts the image from the given file. EXIF orientation is applied so the
// pixels line up with what annotation tools display.
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	return img, nil
}

// ReadImageSize returns the width and height stored in the image header without decoding the
// pixels.
func ReadImageSize(path string) (image.Point, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "cannot open image %q", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "cannot read image header of %q", path)
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// WriteImageToFile writes the image to the given path, the format follows the extension.
func WriteImageToFile(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "cannot write image %q", path)
	}
	return nil
}

// SameImgSize reports whether both images have the same width and height.
func SameImgSize(g1, g2 image.Image) bool {
	return g1.Bounds().Size() == g2.Bounds().Size()
}
