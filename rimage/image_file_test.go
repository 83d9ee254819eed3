package rimage

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestReadWriteImageFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 8))
	img.SetNRGBA(3, 3, color.NRGBA{255, 0, 0, 255})

	path := filepath.Join(dir, "mask_0001.png")
	test.That(t, WriteImageToFile(path, img), test.ShouldBeNil)

	size, err := ReadImageSize(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, size, test.ShouldResemble, image.Point{4, 8})

	read, err := ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, SameImgSize(read, img), test.ShouldBeTrue)
	r, g, b, _ := read.At(3, 3).RGBA()
	test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{255, 0, 0})

	jpegPath := filepath.Join(dir, "fgbg_0001.jpg")
	test.That(t, WriteImageToFile(jpegPath, img), test.ShouldBeNil)
	size, err = ReadImageSize(jpegPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, size, test.ShouldResemble, image.Point{4, 8})

	// A binary mask is an image.Image and can be written directly.
	mask := NewBinaryMask(5, 2)
	mask.Set(1, 1, true)
	maskPath := filepath.Join(dir, "clean.png")
	test.That(t, WriteImageToFile(maskPath, mask), test.ShouldBeNil)
	read, err = ReadImageFromFile(maskPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, BinaryMaskFromImage(read), test.ShouldResemble, mask)
}

func TestReadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadImageFromFile(filepath.Join(dir, "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing.png")

	_, err = ReadImageSize(filepath.Join(dir, "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)

	garbage := filepath.Join(dir, "garbage.png")
	test.That(t, os.WriteFile(garbage, []byte("not an image"), 0o600), test.ShouldBeNil)
	_, err = ReadImageSize(garbage)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "header")

	_, err = ReadImageFromFile(garbage)
	test.That(t, err, test.ShouldNotBeNil)
}
