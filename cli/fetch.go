package cli

import (
	"os"

	"github.com/hashicorp/go-getter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/datasetninja/modes-cattle/dataset"
)

// FetchAction downloads a raw dataset archive and unpacks it into the destination folder.
func FetchAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("expected exactly two arguments: <url> <destination>")
	}
	src, dst := c.Args().Get(0), c.Args().Get(1)

	if entries, err := os.ReadDir(dst); err == nil && len(entries) > 0 && !c.Bool(flagForce) {
		return errors.Errorf("destination %q is not empty, use --%s to download anyway", dst, flagForce)
	}
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}

	logger := newLogger(c)
	logger.Infow("fetching dataset", "src", src, "dst", dst)
	client := &getter.Client{
		Ctx:  c.Context,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeAny,
	}
	if err := client.Get(); err != nil {
		return errors.Wrapf(err, "cannot fetch %q", src)
	}

	count, err := dataset.CountFiles(dst, "")
	if err != nil {
		return err
	}
	infof(c.App.Writer, "fetched %d files into %s", count, dst)
	return nil
}
