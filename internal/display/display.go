// Package display presents rendered images and short user notices.
package display

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/pkg/errors"
)

// Display is the final stage of a request.
type Display interface {
	Show(ctx context.Context, title string, img image.Image) error
	Notify(ctx context.Context, msg string) error
}

// Log only reports notices and image sizes through the context logger.
type Log struct{}

var _ Display = Log{}

func (Log) Show(ctx context.Context, title string, img image.Image) error {
	logger.Entry(ctx).WithField("title", title).WithField("bounds", img.Bounds()).Info("rendered")
	return nil
}

func (Log) Notify(ctx context.Context, msg string) error {
	logger.Entry(ctx).Info(msg)
	return nil
}

// PNGDir writes each shown image to Dir as a png file named after the title.
type PNGDir struct {
	Dir string
	enc png.Encoder
}

var _ Display = &PNGDir{}

func NewPNGDir(dir string) (*PNGDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "os.MkdirAll")
	}
	return &PNGDir{Dir: dir, enc: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// Path is where Show stores the image for title.
func (d *PNGDir) Path(title string) string {
	base := filepath.Base(title)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return filepath.Join(d.Dir, base+".contours.png")
}

func (d *PNGDir) Show(ctx context.Context, title string, img image.Image) error {
	p := d.Path(title)
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrap(err, "os.Create")
	}
	if err := d.enc.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "png.Encode")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	logger.Entry(ctx).WithField("path", p).Info("wrote overlay")
	return nil
}

func (d *PNGDir) Notify(ctx context.Context, msg string) error {
	logger.Entry(ctx).Info(msg)
	return nil
}

// Multi fans out to every display and returns the first error.
type Multi []Display

var _ Display = Multi{}

func (m Multi) Show(ctx context.Context, title string, img image.Image) error {
	var first error
	for i, d := range m {
		if err := d.Show(ctx, title, img); err != nil && first == nil {
			first = errors.Wrap(err, fmt.Sprintf("display %d", i))
		}
	}
	return first
}

func (m Multi) Notify(ctx context.Context, msg string) error {
	var first error
	for i, d := range m {
		if err := d.Notify(ctx, msg); err != nil && first == nil {
			first = errors.Wrap(err, fmt.Sprintf("display %d", i))
		}
	}
	return first
}
