// Package testutils holds helpers shared by the tests of several packages.
package testutils

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/datasetninja/modes-cattle/rimage"
)

// WriteImage encodes img at path, creating missing folders, and fails the test if it cannot.
func WriteImage(tb testing.TB, path string, img image.Image) {
	tb.Helper()
	test.That(tb, os.MkdirAll(filepath.Dir(path), 0o750), test.ShouldBeNil)
	test.That(tb, rimage.WriteImageToFile(path, img), test.ShouldBeNil)
}

// MkdirAll creates dir and fails the test if it cannot.
func MkdirAll(tb testing.TB, dir string) {
	tb.Helper()
	test.That(tb, os.MkdirAll(dir, 0o750), test.ShouldBeNil)
}
