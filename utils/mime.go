package utils

import (
	"path/filepath"
	"strings"
)

const (
	// MimeTypeJPEG is regular jpgs.
	MimeTypeJPEG = "image/jpeg"

	// MimeTypePNG is regular pngs.
	MimeTypePNG = "image/png"

	// MimeTypeQOI is for .qoi "Quite OK Image" for lossless, fast encoding/decoding.
	MimeTypeQOI = "image/qoi"

	// MimeTypeBMP is for bitmaps, some depth exports use it.
	MimeTypeBMP = "image/bmp"

	// MimeTypeTIFF is for tiffs, commonly 16 bit depth maps.
	MimeTypeTIFF = "image/tiff"

	// MimeTypeWebP is for webp.
	MimeTypeWebP = "image/webp"

	// MimeTypeGIF is for gifs.
	MimeTypeGIF = "image/gif"

	// MimeTypeOctetStream is used for anything we do not recognize.
	MimeTypeOctetStream = "application/octet-stream"
)

var extensionMimeTypes = map[string]string{
	".jpg":  MimeTypeJPEG,
	".jpeg": MimeTypeJPEG,
	".png":  MimeTypePNG,
	".qoi":  MimeTypeQOI,
	".bmp":  MimeTypeBMP,
	".tif":  MimeTypeTIFF,
	".tiff": MimeTypeTIFF,
	".webp": MimeTypeWebP,
	".gif":  MimeTypeGIF,
}

// MimeTypeFromPath returns the image mime type implied by the file extension of path, or
// MimeTypeOctetStream.
func MimeTypeFromPath(path string) string {
	if mt, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return MimeTypeOctetStream
}

// IsImagePath reports whether the path has an image extension we know how to decode.
func IsImagePath(path string) bool {
	_, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}
