package rimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/datasetninja/modes-cattle/utils"
)

// Channel thresholds used to remove compression noise from the masks. A pixel whose color
// channels all lie in [MaskWhiteLow, 255] becomes pure white, one whose channels all lie in
// [0, MaskBlackHigh] becomes pure black.
const (
	MaskWhiteLow  = 182
	MaskBlackHigh = 64
)

// ForegroundChannel is the channel read after cleaning. Only a value of exactly 255 counts as
// foreground.
const ForegroundChannel = 0

// FixMask snaps near-white and near-black pixels of img to pure white and pure black. Pixels
// in between are left as they are, so they end up as background unless their read channel is
// already 255. Alpha is untouched. img is modified in place and returned.
func FixMask(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	utils.ParallelForEachPixel(bounds.Size(), func(x, y int) {
		off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
		px := img.Pix[off : off+3 : off+3]
		switch {
		case px[0] >= MaskWhiteLow && px[1] >= MaskWhiteLow && px[2] >= MaskWhiteLow:
			px[0], px[1], px[2] = 255, 255, 255
		case px[0] <= MaskBlackHigh && px[1] <= MaskBlackHigh && px[2] <= MaskBlackHigh:
			px[0], px[1], px[2] = 0, 0, 0
		}
	})
	return img
}

// CleanMask converts a decoded mask image to its binary form: the image is normalised to 8 bit
// NRGBA, fixed with FixMask and read at ForegroundChannel.
func CleanMask(img image.Image) *BinaryMask {
	return BinaryMaskFromChannel(FixMask(imaging.Clone(img)), ForegroundChannel)
}

// BinaryMaskFromChannel marks a pixel as foreground exactly when channel ch (0 red, 1 green,
// 2 blue, 3 alpha) equals 255.
func BinaryMaskFromChannel(img *image.NRGBA, ch int) *BinaryMask {
	bounds := img.Bounds()
	mask := NewBinaryMask(bounds.Dx(), bounds.Dy())
	for y := 0; y < mask.height; y++ {
		for x := 0; x < mask.width; x++ {
			if img.Pix[img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)+ch] == 255 {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

// BinaryMaskFromImage treats every opaque pixel brighter than mid gray as foreground. It is the
// inverse of BinaryMask.ToPaletted.
func BinaryMaskFromImage(img image.Image) *BinaryMask {
	bounds := img.Bounds()
	mask := NewBinaryMask(bounds.Dx(), bounds.Dy())
	for y := 0; y < mask.height; y++ {
		for x := 0; x < mask.width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			_, _, _, a := c.RGBA()
			if a > 0 && color.Gray16Model.Convert(c).(color.Gray16).Y > 0x7fff {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

// BinaryMask is a width by height grid of foreground flags. It implements image.Image as a
// black and white gray image.
type BinaryMask struct {
	width, height int
	bits          []bool
}

// NewBinaryMask returns an all background mask.
func NewBinaryMask(width, height int) *BinaryMask {
	return &BinaryMask{width: width, height: height, bits: make([]bool, width*height)}
}

// Width of the mask.
func (m *BinaryMask) Width() int {
	return m.width
}

// Height of the mask.
func (m *BinaryMask) Height() int {
	return m.height
}

// Size returns the mask dimensions.
func (m *BinaryMask) Size() image.Point {
	return image.Point{X: m.width, Y: m.height}
}

// In reports whether x, y lies inside the mask.
func (m *BinaryMask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// Get returns whether x, y is foreground. Outside points are background.
func (m *BinaryMask) Get(x, y int) bool {
	return m.In(x, y) && m.bits[y*m.width+x]
}

// Set marks x, y. Outside points are ignored.
func (m *BinaryMask) Set(x, y int, fg bool) {
	if m.In(x, y) {
		m.bits[y*m.width+x] = fg
	}
}

// Count returns the number of foreground pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// ForegroundBounds returns the smallest rectangle containing every foreground pixel. It is empty
// when there is none.
func (m *BinaryMask) ForegroundBounds() image.Rectangle {
	minX, minY, maxX, maxY := m.width, m.height, -1, -1
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if !m.bits[y*m.width+x] {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Crop returns a copy of the part of the mask inside r. r is clipped to the mask.
func (m *BinaryMask) Crop(r image.Rectangle) *BinaryMask {
	r = r.Intersect(image.Rect(0, 0, m.width, m.height))
	out := NewBinaryMask(r.Dx(), r.Dy())
	for y := 0; y < out.height; y++ {
		copy(out.bits[y*out.width:(y+1)*out.width], m.bits[(r.Min.Y+y)*m.width+r.Min.X:])
	}
	return out
}

// ToPaletted renders the mask with a two entry palette: transparent black for background and
// opaque white for foreground.
func (m *BinaryMask) ToPaletted() *image.Paletted {
	palette := color.Palette{color.NRGBA{0, 0, 0, 0}, color.NRGBA{255, 255, 255, 255}}
	img := image.NewPaletted(image.Rect(0, 0, m.width, m.height), palette)
	for i, b := range m.bits {
		if b {
			img.Pix[i] = 1
		}
	}
	return img
}

// ColorModel is gray.
func (m *BinaryMask) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds of the whole mask, starting at the origin.
func (m *BinaryMask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// At returns white for foreground and black for background.
func (m *BinaryMask) At(x, y int) color.Color {
	if m.Get(x, y) {
		return color.Gray{Y: 255}
	}
	return color.Gray{}
}
