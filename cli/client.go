// Package cli contains all business logic needed by the CLI command.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/datasetninja/modes-cattle/config"
	"github.com/datasetninja/modes-cattle/logging"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

// infof prints a message prefixed with a bold cyan "Info: ".
func infof(w io.Writer, format string, a ...interface{}) {
	// Fatally log any write errors here and below; there is nowhere else to report them.
	if _, err := color.New(color.Bold, color.FgCyan).Fprint(w, "Info: "); err != nil {
		log.Fatal(err)
	}
	printf(w, format, a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: "); err != nil {
		log.Fatal(err)
	}
	printf(w, format, a...)
}

// Errorf prints a message prefixed with a bold red "Error: " prefix and exits with 1.
func Errorf(w io.Writer, format string, a ...interface{}) {
	if _, err := color.New(color.Bold, color.FgRed).Fprint(w, "Error: "); err != nil {
		log.Fatal(err)
	}
	printf(w, format, a...)
	os.Exit(1)
}

// newLogger returns the logger of a command, at debug level when --debug is set.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("modes")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

// loadConfig reads --config when set and starts from the defaults otherwise. Validation is left
// to the caller since flags may still change the config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(flagConfig)
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load config %q", path)
	}
	return cfg, nil
}
