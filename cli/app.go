package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagConfig         = "config"
	flagDebug          = "debug"
	flagSourceRoot     = "source-root"
	flagProjectName    = "project-name"
	flagBatchSize      = "batch-size"
	flagSink           = "sink"
	flagWorkspaceID    = "workspace-id"
	flagServerAddress  = "server-address"
	flagAPIToken       = "api-token"
	flagAPIKey         = "api-key"
	flagAPIKeyID       = "api-key-id"
	flagOrganizationID = "organization-id"
	flagPartID         = "part-id"
	flagOut            = "out"
	flagDryRun         = "dry-run"
	flagNoProgress     = "no-progress"
	flagForce          = "force"
)

var app = &cli.App{
	Name:            "modes",
	Usage:           "publish the MoDES cattle dataset to an annotation platform",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "convert",
			Usage:     "upload images, depth maps and masks as one project",
			UsageText: "modes convert [--config FILE] [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  flagSourceRoot,
					Usage: "folder holding the images, depth and masks folders",
				},
				&cli.StringFlag{
					Name:  flagProjectName,
					Usage: "name of the project to create",
				},
				&cli.IntFlag{
					Name:  flagBatchSize,
					Usage: "number of images uploaded per call",
				},
				&cli.StringFlag{
					Name:  flagSink,
					Usage: "where to publish: supervisely, viam or local",
				},
				&cli.IntFlag{
					Name:    flagWorkspaceID,
					Usage:   "supervisely workspace receiving the project",
					EnvVars: []string{"WORKSPACE_ID"},
				},
				&cli.StringFlag{
					Name:    flagServerAddress,
					Usage:   "supervisely instance address",
					EnvVars: []string{"SERVER_ADDRESS"},
				},
				&cli.StringFlag{
					Name:    flagAPIToken,
					Usage:   "supervisely api token",
					EnvVars: []string{"API_TOKEN"},
				},
				&cli.StringFlag{
					Name:    flagAPIKey,
					Usage:   "viam api key",
					EnvVars: []string{"VIAM_API_KEY"},
				},
				&cli.StringFlag{
					Name:    flagAPIKeyID,
					Usage:   "viam api key id",
					EnvVars: []string{"VIAM_API_KEY_ID"},
				},
				&cli.StringFlag{
					Name:    flagOrganizationID,
					Usage:   "viam organization receiving the datasets",
					EnvVars: []string{"VIAM_ORGANIZATION_ID"},
				},
				&cli.StringFlag{
					Name:    flagPartID,
					Usage:   "viam machine part the images are uploaded for",
					EnvVars: []string{"VIAM_PART_ID"},
				},
				&cli.PathFlag{
					Name:  flagOut,
					Usage: "output folder of the local sink",
				},
				&cli.BoolFlag{
					Name:  flagDryRun,
					Usage: "write the project to the local sink instead of uploading it",
				},
				&cli.BoolFlag{
					Name:  flagNoProgress,
					Usage: "log progress instead of drawing spinners",
				},
			},
			Action: ConvertAction,
		},
		{
			Name:      "inspect",
			Usage:     "list the image groups of a raw dataset",
			UsageText: "modes inspect [--config FILE] [--source-root DIR]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  flagSourceRoot,
					Usage: "folder holding the images, depth and masks folders",
				},
			},
			Action: InspectAction,
		},
		{
			Name:      "clean-mask",
			Usage:     "snap a mask to black and white and write its foreground",
			ArgsUsage: "<input> <output>",
			Action:    CleanMaskAction,
		},
		{
			Name:      "fetch",
			Usage:     "download and unpack a raw dataset archive",
			ArgsUsage: "<url> <destination>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  flagForce,
					Usage: "download even when the destination is not empty",
				},
			},
			Action: FetchAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
