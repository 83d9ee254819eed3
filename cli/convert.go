package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/convert"
	"github.com/datasetninja/modes-cattle/logging"
	"github.com/datasetninja/modes-cattle/sink"
	// register sinks.
	_ "github.com/datasetninja/modes-cattle/sink/register"
)

const defaultOutDir = "modes-out"

// setAttribute overrides a sink attribute when a flag or its environment variable has a value.
func setAttribute(cfg *config.Config, key string, value interface{}) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
	case int:
		if v == 0 {
			return
		}
	}
	if cfg.Sink.Attributes == nil {
		cfg.Sink.Attributes = config.AttributeMap{}
	}
	cfg.Sink.Attributes[key] = value
}

// applyConvertFlags layers the convert flags over the loaded config.
func applyConvertFlags(c *cli.Context, cfg *config.Config) {
	if root := c.Path(flagSourceRoot); root != "" {
		cfg.SourceRoot = root
	}
	if name := c.String(flagProjectName); name != "" {
		cfg.ProjectName = name
	}
	if size := c.Int(flagBatchSize); size != 0 {
		cfg.BatchSize = size
	}
	if typ := c.String(flagSink); typ != "" && config.SinkType(typ) != cfg.Sink.Type {
		cfg.Sink = config.SinkConfig{Type: config.SinkType(typ)}
	}
	if c.Bool(flagDryRun) {
		cfg.Sink = config.SinkConfig{Type: config.SinkTypeLocal}
	}

	switch cfg.Sink.Type {
	case config.SinkTypeSupervisely:
		setAttribute(cfg, "server_address", c.String(flagServerAddress))
		setAttribute(cfg, "api_token", c.String(flagAPIToken))
		setAttribute(cfg, "workspace_id", c.Int(flagWorkspaceID))
	case config.SinkTypeViam:
		setAttribute(cfg, "api_key", c.String(flagAPIKey))
		setAttribute(cfg, "api_key_id", c.String(flagAPIKeyID))
		setAttribute(cfg, "organization_id", c.String(flagOrganizationID))
		setAttribute(cfg, "part_id", c.String(flagPartID))
	case config.SinkTypeLocal:
		setAttribute(cfg, "dir", c.Path(flagOut))
		if _, ok := cfg.Sink.Attributes["dir"]; !ok {
			setAttribute(cfg, "dir", defaultOutDir)
		}
	}
}

// ConvertAction uploads the dataset and prints where the project ended up.
func ConvertAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyConvertFlags(c, cfg)
	if err := cfg.Ensure(); err != nil {
		return err
	}

	ctx := c.Context
	if c.Bool(flagDebug) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	s, err := sink.New(ctx, cfg.Sink, logger)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s sink", cfg.Sink.Type)
	}
	defer func() {
		err = multierr.Combine(err, s.Close(ctx))
	}()

	var opts []convert.Option
	var progress *folderProgress
	if !c.Bool(flagNoProgress) {
		steps := []*Step{{ID: "convert", Message: "Converting " + cfg.ProjectName}}
		var folderSteps []*Step
		for _, folder := range cfg.SourceFolders() {
			folderSteps = append(folderSteps, &Step{ID: folder, Message: "uploading " + folder, IndentLevel: 1})
		}
		pm := NewProgressManager(c.App.Writer, append(steps, folderSteps...))
		defer pm.Stop()
		//nolint:errcheck
		pm.Start("convert")
		progress = newFolderProgress(pm, folderSteps)
		opts = append(opts, convert.WithProgress(progress))
		defer func() {
			if err != nil {
				progress.fail(err)
				//nolint:errcheck
				pm.Fail("convert", err)
				return
			}
			//nolint:errcheck
			pm.Complete("convert")
		}()
	}

	project, stats, err := convert.New(cfg, s, logger, opts...).RunWithStats(ctx)
	if err != nil {
		if project != nil {
			warningf(c.App.ErrWriter, "project %q was left partially uploaded", project.Name)
		}
		return err
	}

	infof(c.App.Writer, "created project %q (%s)", project.Name, project.ID)
	if project.URL != "" {
		printf(c.App.Writer, "%s", project.URL)
	}
	printf(c.App.Writer, "uploaded %d images in %d batches with %d labels", stats.Images, stats.Batches, stats.Labels)
	return nil
}
