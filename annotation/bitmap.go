package annotation

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/datasetninja/modes-cattle/rimage"
)

// ErrEmptyBitmap is returned when a bitmap would not contain any foreground pixel.
var ErrEmptyBitmap = errors.New("bitmap has no foreground pixels")

// Bitmap is a binary mask placed at Origin in image coordinates. The mask is cropped to its
// foreground.
type Bitmap struct {
	Origin image.Point
	Mask   *rimage.BinaryMask
}

// NewBitmap crops mask to its foreground and remembers where the crop sits.
func NewBitmap(mask *rimage.BinaryMask) (*Bitmap, error) {
	bounds := mask.ForegroundBounds()
	if bounds.Empty() {
		return nil, ErrEmptyBitmap
	}
	return &Bitmap{Origin: bounds.Min, Mask: mask.Crop(bounds)}, nil
}

// Rect is the area of the image covered by the bitmap.
func (b *Bitmap) Rect() image.Rectangle {
	return image.Rectangle{Min: b.Origin, Max: b.Origin.Add(b.Mask.Size())}
}

// Area is the number of foreground pixels.
func (b *Bitmap) Area() int {
	return b.Mask.Count()
}

// EncodeBitmapData renders the mask as a two color PNG, compresses it with zlib and returns it
// base64 encoded. This is how annotation platforms in the Supervisely format store bitmaps.
func EncodeBitmapData(mask *rimage.BinaryMask) (string, error) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, mask.ToPaletted()); err != nil {
		return "", errors.Wrap(err, "cannot encode bitmap as png")
	}

	var zBuf bytes.Buffer
	zw := zlib.NewWriter(&zBuf)
	if _, err := zw.Write(pngBuf.Bytes()); err != nil {
		return "", errors.Wrap(err, "cannot compress bitmap")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, "cannot compress bitmap")
	}
	return base64.StdEncoding.EncodeToString(zBuf.Bytes()), nil
}

// DecodeBitmapData reverses EncodeBitmapData.
func DecodeBitmapData(data string) (*rimage.BinaryMask, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "bitmap data is not base64")
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "bitmap data is not zlib compressed")
	}
	pngBytes, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot decompress bitmap")
	}
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, errors.Wrap(err, "bitmap data is not a png")
	}
	return rimage.BinaryMaskFromImage(img), nil
}
