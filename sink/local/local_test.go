package local

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/datasetninja/modes-cattle/annotation"
	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/rimage"
	"github.com/datasetninja/modes-cattle/sink"
)

func TestLocalSink(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	out := t.TempDir()

	s, err := sink.New(ctx, config.SinkConfig{Type: Type, Attributes: config.AttributeMap{"dir": out}}, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() { test.That(t, s.Close(ctx), test.ShouldBeNil) }()

	spec := sink.ProjectSpec{
		Name:       "MoDES Dataset of Cattle",
		Meta:       sink.NewProjectMeta("cattle", "image_id"),
		GroupByTag: "image_id",
	}
	project, err := s.CreateProject(ctx, spec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, project.Name, test.ShouldEqual, "MoDES Dataset of Cattle")

	// A second project with the same name is renamed.
	second, err := s.CreateProject(ctx, spec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Name, test.ShouldEqual, "MoDES Dataset of Cattle_001")

	raw, err := os.ReadFile(filepath.Join(out, project.Name, "meta.json"))
	test.That(t, err, test.ShouldBeNil)
	var meta map[string]interface{}
	test.That(t, json.Unmarshal(raw, &meta), test.ShouldBeNil)
	test.That(t, meta["classes"].([]interface{}), test.ShouldHaveLength, 1)
	test.That(t, meta["projectSettings"], test.ShouldResemble, map[string]interface{}{
		"multiView": map[string]interface{}{"enabled": true, "tagName": "image_id", "isSynced": false},
	})

	dataset, err := s.CreateDataset(ctx, project, "ds")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dataset.Name, test.ShouldEqual, "ds")
	test.That(t, dataset.ProjectID, test.ShouldEqual, project.ID)

	src := filepath.Join(t.TempDir(), "fgbg_0001.png")
	test.That(t, rimage.WriteImageToFile(src, image.NewGray(image.Rect(0, 0, 3, 2))), test.ShouldBeNil)

	infos, err := s.UploadImages(ctx, dataset, []string{"images_fgbg_0001.png"}, []string{src})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, infos, test.ShouldHaveLength, 1)
	test.That(t, infos[0].Name, test.ShouldEqual, "images_fgbg_0001.png")
	test.That(t, infos[0].ID, test.ShouldNotBeEmpty)
	size, err := rimage.ReadImageSize(filepath.Join(dataset.ID, "img", "images_fgbg_0001.png"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, size, test.ShouldResemble, image.Point{3, 2})

	ann := &annotation.Annotation{
		Size: annotation.Size{Height: 2, Width: 3},
		Tags: []annotation.Tag{{Name: "image_id", Value: "fgbg_0001"}},
	}
	test.That(t, s.UploadAnnotations(ctx, dataset, []string{infos[0].ID}, []*annotation.Annotation{ann}), test.ShouldBeNil)

	raw, err = os.ReadFile(filepath.Join(dataset.ID, "ann", "images_fgbg_0001.png.json"))
	test.That(t, err, test.ShouldBeNil)
	var back annotation.Annotation
	test.That(t, json.Unmarshal(raw, &back), test.ShouldBeNil)
	test.That(t, back.Tags, test.ShouldResemble, ann.Tags)
	test.That(t, back.Size, test.ShouldResemble, ann.Size)

	t.Run("errors", func(t *testing.T) {
		_, err := s.UploadImages(ctx, dataset, []string{"a", "b"}, []string{src})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "length mismatch")

		_, err = s.UploadImages(ctx, dataset, []string{"x.png"}, []string{filepath.Join(out, "missing.png")})
		test.That(t, err, test.ShouldNotBeNil)

		_, err = s.UploadImages(ctx, &sink.Dataset{ID: "nope"}, []string{"x.png"}, []string{src})
		test.That(t, err, test.ShouldNotBeNil)

		err = s.UploadAnnotations(ctx, dataset, []string{"unknown"}, []*annotation.Annotation{ann})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unknown image id")

		_, err = s.UploadImages(ctx, dataset, []string{"../escape.png"}, []string{src})
		test.That(t, err, test.ShouldNotBeNil)
	})

	_, err = sink.New(ctx, config.SinkConfig{Type: Type}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"dir" is required`)
}
