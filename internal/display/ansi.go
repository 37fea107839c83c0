package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"sync"

	"github.com/eliukblau/pixterm/pkg/ansimage"
	"github.com/pkg/errors"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// ANSI draws images as true color half blocks, scaled to fit the terminal.
type ANSI struct {
	mutex sync.Mutex
	Out   io.Writer
	// Size overrides terminal detection when set.
	Size func() (cols, rows int)
}

var _ Display = &ANSI{}

func NewANSI(out *os.File) *ANSI {
	return &ANSI{Out: out, Size: func() (int, int) { return terminalSize(out) }}
}

func (a *ANSI) size() (int, int) {
	cols, rows := defaultCols, defaultRows
	if a.Size != nil {
		if c, r := a.Size(); c > 0 && r > 0 {
			cols, rows = c, r
		}
	}
	if rows > 2 {
		rows-- // leave a line for the title
	}
	return cols, rows
}

func (a *ANSI) Show(ctx context.Context, title string, img image.Image) error {
	cols, rows := a.size()
	ansi, err := ansimage.NewScaledFromImage(img, 2*rows, cols, color.Black, ansimage.ScaleModeFit, ansimage.NoDithering)
	if err != nil {
		return errors.Wrap(err, "ansimage.NewScaledFromImage")
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, err := fmt.Fprintf(a.Out, "%s\n%s", title, ansi.Render()); err != nil {
		return errors.Wrap(err, "write ansi")
	}
	return nil
}

func (a *ANSI) Notify(ctx context.Context, msg string) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	_, err := fmt.Fprintln(a.Out, msg)
	return err
}
