package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestFromReaderValidate(t *testing.T) {
	_, err := FromReader("somepath", strings.NewReader(""))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"batch_size": "thirty"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	_, err = FromReader("somepath", strings.NewReader(`{"bach_size": 3}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bach_size")

	conf, err := FromReader("somepath", strings.NewReader(`{}`))
	test.That(t, err, test.ShouldBeNil)
	expected := Default()
	expected.ConfigFilePath = "somepath"
	test.That(t, conf, test.ShouldResemble, expected)

	_, err = FromReader("somepath", strings.NewReader(`{"batch_size": -1}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "batch_size must be positive")

	_, err = FromReader("somepath", strings.NewReader(`{"sink": {"type": "s3"}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown sink type "s3"`)

	_, err = FromReader("somepath", strings.NewReader(`{"images_folder": "depth"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must differ")

	conf, err = FromReader("somepath", strings.NewReader(
		`{"source_root": "/data/out2", "batch_size": 7, "sink": {"type": "local", "attributes": {"dir": "/tmp/out"}}}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.BatchSize, test.ShouldEqual, 7)
	test.That(t, conf.ImagesPath(), test.ShouldEqual, filepath.Join("/data/out2", "images"))
	test.That(t, conf.DepthsPath(), test.ShouldEqual, filepath.Join("/data/out2", "depth"))
	test.That(t, conf.MasksPath(), test.ShouldEqual, filepath.Join("/data/out2", "masks"))
	test.That(t, conf.SourceFolders(), test.ShouldResemble, []string{"images", "depth"})
	test.That(t, conf.Sink.Attributes["dir"], test.ShouldEqual, "/tmp/out")
}

func TestValidateRequiredFields(t *testing.T) {
	for _, tc := range []struct {
		field string
		clear func(c *Config)
	}{
		{"source_root", func(c *Config) { c.SourceRoot = "" }},
		{"masks_folder", func(c *Config) { c.MasksFolder = "" }},
		{"mask_prefix", func(c *Config) { c.MaskPrefix = "" }},
		{"class_name", func(c *Config) { c.ClassName = "" }},
		{"tag_name", func(c *Config) { c.TagName = "" }},
	} {
		t.Run(tc.field, func(t *testing.T) {
			conf := Default()
			tc.clear(conf)
			err := conf.Validate("")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, `"`+tc.field+`" is required`)

			// Ensure restores the default instead.
			test.That(t, conf.Ensure(), test.ShouldBeNil)
		})
	}

	conf := Default()
	conf.Sink.Type = ""
	err := conf.Validate("")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"type" is required`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sink")
}

func TestDecodeAttributes(t *testing.T) {
	type supervisely struct {
		ServerAddress string `json:"server_address"`
		WorkspaceID   int    `json:"workspace_id"`
	}

	sink := SinkConfig{
		Type: SinkTypeSupervisely,
		Attributes: AttributeMap{
			"server_address": "https://app.supervisely.com",
			"workspace_id":   "42",
		},
	}
	var attrs supervisely
	test.That(t, sink.DecodeAttributes(&attrs), test.ShouldBeNil)
	test.That(t, attrs, test.ShouldResemble, supervisely{"https://app.supervisely.com", 42})

	sink.Attributes["workspace_id"] = []string{"nope"}
	err := sink.DecodeAttributes(&attrs)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "supervisely sink attributes")
}

func TestReadSubstitutesEnvironment(t *testing.T) {
	t.Setenv("MODES_TEST_TOKEN", "s3cr3t")
	t.Setenv("MODES_TEST_ROOT", "/srv/modes")

	path := filepath.Join(t.TempDir(), "convert.json")
	err := os.WriteFile(path, []byte(`{
		"source_root": "${MODES_TEST_ROOT}/out2",
		"sink": {"type": "supervisely", "attributes": {"api_token": "${MODES_TEST_TOKEN}"}}
	}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	conf, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.SourceRoot, test.ShouldEqual, "/srv/modes/out2")
	test.That(t, conf.Sink.Attributes["api_token"], test.ShouldEqual, "s3cr3t")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
