package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/datasetninja/modes-cattle/rimage"
)

// CleanMaskAction snaps a raw mask to black and white and writes its foreground as a two color
// PNG.
func CleanMaskAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("expected exactly two arguments: <input> <output>")
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	img, err := rimage.ReadImageFromFile(in)
	if err != nil {
		return err
	}
	mask := rimage.CleanMask(img)
	if err := rimage.WriteImageToFile(out, mask.ToPaletted()); err != nil {
		return err
	}

	bounds := mask.ForegroundBounds()
	if bounds.Empty() {
		warningf(c.App.ErrWriter, "%s has no foreground", in)
	}
	printf(c.App.Writer, "%s: %d foreground pixels in %v, written to %s", in, mask.Count(), bounds, out)
	return nil
}
