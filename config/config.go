// Package config defines the conversion configuration: where the raw dataset lives, how its files
// are named, and which annotation sink receives the result.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Defaults of the MoDES cattle release.
const (
	DefaultSourceRoot   = "/mnt/d/datasetninja-raw/modes-cattle/out2"
	DefaultImagesFolder = "images"
	DefaultDepthsFolder = "depth"
	DefaultMasksFolder  = "masks"
	DefaultImagePrefix  = "fgbg"
	DefaultMaskPrefix   = "mask"
	DefaultBatchSize    = 30
	DefaultClassName    = "cattle"
	DefaultTagName      = "image_id"
	DefaultDatasetName  = "ds"
	DefaultProjectName  = "MoDES Dataset of Cattle"
)

// SinkType names an annotation sink implementation.
type SinkType string

// The supported sink types.
const (
	SinkTypeSupervisely = SinkType("supervisely")
	SinkTypeViam        = SinkType("viam")
	SinkTypeLocal       = SinkType("local")
)

// AttributeMap is a free-form set of sink specific attributes.
type AttributeMap map[string]interface{}

// SinkConfig selects and configures the annotation sink.
type SinkConfig struct {
	Type       SinkType     `json:"type"`
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// Config describes one conversion run.
type Config struct {
	ConfigFilePath string `json:"-"`

	SourceRoot   string `json:"source_root"`
	ImagesFolder string `json:"images_folder"`
	DepthsFolder string `json:"depths_folder"`
	MasksFolder  string `json:"masks_folder"`
	ImagePrefix  string `json:"image_prefix"`
	MaskPrefix   string `json:"mask_prefix"`
	BatchSize    int    `json:"batch_size"`
	ClassName    string `json:"class_name"`
	TagName      string `json:"tag_name"`
	DatasetName  string `json:"dataset_name"`
	ProjectName  string `json:"project_name"`

	Sink SinkConfig `json:"sink"`
}

// Default returns the configuration used to publish the MoDES cattle dataset.
func Default() *Config {
	return &Config{
		SourceRoot:   DefaultSourceRoot,
		ImagesFolder: DefaultImagesFolder,
		DepthsFolder: DefaultDepthsFolder,
		MasksFolder:  DefaultMasksFolder,
		ImagePrefix:  DefaultImagePrefix,
		MaskPrefix:   DefaultMaskPrefix,
		BatchSize:    DefaultBatchSize,
		ClassName:    DefaultClassName,
		TagName:      DefaultTagName,
		DatasetName:  DefaultDatasetName,
		ProjectName:  DefaultProjectName,
		Sink:         SinkConfig{Type: SinkTypeSupervisely},
	}
}

// Ensure fills unset fields with their defaults and validates the result.
func (c *Config) Ensure() error {
	defaults := Default()
	setDefault(&c.SourceRoot, defaults.SourceRoot)
	setDefault(&c.ImagesFolder, defaults.ImagesFolder)
	setDefault(&c.DepthsFolder, defaults.DepthsFolder)
	setDefault(&c.MasksFolder, defaults.MasksFolder)
	setDefault(&c.ImagePrefix, defaults.ImagePrefix)
	setDefault(&c.MaskPrefix, defaults.MaskPrefix)
	setDefault(&c.ClassName, defaults.ClassName)
	setDefault(&c.TagName, defaults.TagName)
	setDefault(&c.DatasetName, defaults.DatasetName)
	setDefault(&c.ProjectName, defaults.ProjectName)
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Sink.Type == "" {
		c.Sink.Type = defaults.Sink.Type
	}
	return c.Validate("")
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// Validate ensures all parts of the config are valid. It does not fill defaults.
func (c *Config) Validate(path string) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"source_root", c.SourceRoot},
		{"images_folder", c.ImagesFolder},
		{"depths_folder", c.DepthsFolder},
		{"masks_folder", c.MasksFolder},
		{"image_prefix", c.ImagePrefix},
		{"mask_prefix", c.MaskPrefix},
		{"class_name", c.ClassName},
		{"tag_name", c.TagName},
		{"dataset_name", c.DatasetName},
		{"project_name", c.ProjectName},
	} {
		if field.value == "" {
			return utils.NewConfigValidationFieldRequiredError(path, field.name)
		}
	}
	if c.BatchSize <= 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.ImagesFolder == c.DepthsFolder {
		return utils.NewConfigValidationError(path,
			errors.Errorf("images_folder and depths_folder must differ, both are %q", c.ImagesFolder))
	}
	return c.Sink.Validate(joinPath(path, "sink"))
}

// Validate ensures the sink type is known.
func (s *SinkConfig) Validate(path string) error {
	switch s.Type {
	case SinkTypeSupervisely, SinkTypeViam, SinkTypeLocal:
		return nil
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown sink type %q", s.Type))
	}
}

// DecodeAttributes decodes the free-form attributes into a sink specific struct using its json
// tags.
func (s *SinkConfig) DecodeAttributes(dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "error creating attribute decoder")
	}
	if err := decoder.Decode(s.Attributes); err != nil {
		return errors.Wrapf(err, "error decoding %s sink attributes", s.Type)
	}
	return nil
}

// ImagesPath is the folder with the color images.
func (c *Config) ImagesPath() string {
	return filepath.Join(c.SourceRoot, c.ImagesFolder)
}

// DepthsPath is the folder with the depth images.
func (c *Config) DepthsPath() string {
	return filepath.Join(c.SourceRoot, c.DepthsFolder)
}

// MasksPath is the folder with the mask images.
func (c *Config) MasksPath() string {
	return filepath.Join(c.SourceRoot, c.MasksFolder)
}

// SourceFolders returns the folders to upload, in upload order.
func (c *Config) SourceFolders() []string {
	return []string{c.ImagesFolder, c.DepthsFolder}
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}
