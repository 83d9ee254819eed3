package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/rimage"
	"github.com/datasetninja/modes-cattle/testutils"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).RunContext(context.Background(), append([]string{"modes"}, args...))
	return out.String(), errOut.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	mask := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	mask.Set(0, 0, color.NRGBA{200, 200, 200, 255})
	for _, path := range []string{
		filepath.Join(root, config.DefaultImagesFolder, "fgbg_0001.png"),
		filepath.Join(root, config.DefaultDepthsFolder, "fgbg_0001.png"),
		filepath.Join(root, config.DefaultImagesFolder, "fgbg_0002.png"),
		filepath.Join(root, config.DefaultDepthsFolder, "fgbg_0002.png"),
	} {
		testutils.WriteImage(t, path, img)
	}
	testutils.WriteImage(t, filepath.Join(root, config.DefaultMasksFolder, "mask_0001.png"), mask)
	return root
}

func TestConvertDryRun(t *testing.T) {
	root := writeDataset(t)
	out := t.TempDir()

	stdout, _, err := runApp(t, "convert",
		"--source-root", root, "--out", out, "--dry-run", "--no-progress", "--project-name", "cattle")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, `created project "cattle"`)
	test.That(t, stdout, test.ShouldContainSubstring, "uploaded 4 images in 2 batches with 2 labels")

	for _, name := range []string{
		"images_fgbg_0001.png", "images_fgbg_0002.png", "depth_fgbg_0001.png", "depth_fgbg_0002.png",
	} {
		_, err := os.Stat(filepath.Join(out, "cattle", config.DefaultDatasetName, "img", name))
		test.That(t, err, test.ShouldBeNil)
	}
}

func TestConvertWithConfigFile(t *testing.T) {
	root := writeDataset(t)
	out := t.TempDir()
	t.Setenv("MODES_TEST_OUT", out)

	cfgPath := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		"source_root": "`+root+`",
		"batch_size": 1,
		"sink": {"type": "local", "attributes": {"dir": "${MODES_TEST_OUT}"}}
	}`), 0o600), test.ShouldBeNil)

	stdout, _, err := runApp(t, "--config", cfgPath, "convert", "--no-progress")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "uploaded 4 images in 4 batches")
	_, err = os.Stat(filepath.Join(out, config.DefaultProjectName, "meta.json"))
	test.That(t, err, test.ShouldBeNil)
}

func TestConvertInvalidConfig(t *testing.T) {
	_, _, err := runApp(t, "convert", "--sink", "ftp", "--no-progress")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown sink type")

	_, _, err = runApp(t, "convert", "--sink", "supervisely", "--no-progress",
		"--server-address", "http://localhost:1", "--api-token", "token")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "workspace_id")
}

func TestApplyConvertFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Sink.Attributes = config.AttributeMap{"workspace_id": 5}
	setAttribute(cfg, "api_token", "")
	setAttribute(cfg, "workspace_id", 0)
	test.That(t, cfg.Sink.Attributes, test.ShouldResemble, config.AttributeMap{"workspace_id": 5})
	setAttribute(cfg, "workspace_id", 7)
	test.That(t, cfg.Sink.Attributes["workspace_id"], test.ShouldEqual, 7)
}

func TestInspect(t *testing.T) {
	root := writeDataset(t)
	test.That(t, os.Remove(filepath.Join(root, config.DefaultDepthsFolder, "fgbg_0002.png")), test.ShouldBeNil)

	stdout, stderr, err := runApp(t, "inspect", "--source-root", root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "fgbg_0001")
	test.That(t, stdout, test.ShouldContainSubstring, "fgbg_0002")
	test.That(t, stdout, test.ShouldContainSubstring, config.DefaultMasksFolder)
	test.That(t, stderr, test.ShouldContainSubstring, "1 groups miss a color or depth image")
}

func TestCleanMask(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mask_0001.png")
	out := filepath.Join(dir, "clean.png")
	mask := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	mask.Set(0, 0, color.NRGBA{200, 200, 200, 255})
	mask.Set(1, 0, color.NRGBA{10, 10, 10, 255})
	mask.Set(2, 0, color.NRGBA{100, 100, 100, 255})
	test.That(t, rimage.WriteImageToFile(in, mask), test.ShouldBeNil)

	stdout, _, err := runApp(t, "clean-mask", in, out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "1 foreground pixels")

	cleaned, err := rimage.ReadImageFromFile(out)
	test.That(t, err, test.ShouldBeNil)
	binary := rimage.BinaryMaskFromImage(cleaned)
	test.That(t, binary.Get(0, 0), test.ShouldBeTrue)
	test.That(t, binary.Get(1, 0), test.ShouldBeFalse)
	test.That(t, binary.Get(2, 0), test.ShouldBeFalse)

	_, _, err = runApp(t, "clean-mask", in)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFetchArguments(t *testing.T) {
	_, _, err := runApp(t, "fetch", "https://example.com/modes.zip")
	test.That(t, err, test.ShouldNotBeNil)

	dst := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dst, "existing"), nil, 0o600), test.ShouldBeNil)
	_, _, err = runApp(t, "fetch", "https://example.com/modes.zip", dst)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, strings.Contains(err.Error(), "--force"), test.ShouldBeTrue)
}
