// Package normalize decodes an image source into an upright, memory bounded
// *image.NRGBA.
package normalize

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxDimension = 4096
	defaultMaxPixels    = 12 * 1024 * 1024

	// Decoders allocate the full source before it is sampled down.
	defaultMaxSourcePixels = 128 * 1024 * 1024
)

// Config bounds the decoded size. Zero fields are unlimited.
type Config struct {
	MaxDimension int
	MaxPixels    int64
	// MaxSourcePixels rejects sources too large to decode at all.
	MaxSourcePixels int64
}

func DefaultConfig() Config {
	return Config{
		MaxDimension:    defaultMaxDimension,
		MaxPixels:       defaultMaxPixels,
		MaxSourcePixels: defaultMaxSourcePixels,
	}
}

// DecodeError means the bytes could not be read as a supported image.
type DecodeError struct {
	URI  string
	Pass string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.URI, e.Pass, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

const (
	passBounds = "bounds"
	passPixels = "pixels"
)

type Normalizer struct {
	Config Config
}

func New(cfg Config) *Normalizer {
	return &Normalizer{Config: cfg}
}

// Normalize decodes src with DefaultConfig.
func Normalize(ctx context.Context, src source.ImageSource) (*image.NRGBA, error) {
	return New(DefaultConfig()).Normalize(ctx, src)
}

// Normalize reads src three times: once for its dimensions, once for pixels at
// the chosen sample size and once for the EXIF orientation. Open failures are
// returned as *source.UnavailableError, undecodable data as *DecodeError.
// Missing or broken metadata only means no rotation.
func (n *Normalizer) Normalize(ctx context.Context, src source.ImageSource) (*image.NRGBA, error) {
	log := logger.Entry(ctx).WithField("source", src.URI())

	cfg, format, err := decodeConfig(ctx, src)
	if err != nil {
		return nil, err
	}
	if limit := n.Config.MaxSourcePixels; limit > 0 && int64(cfg.Width)*int64(cfg.Height) > limit {
		return nil, &DecodeError{URI: src.URI(), Pass: passBounds,
			Err: fmt.Errorf("%dx%d exceeds %d source pixels", cfg.Width, cfg.Height, limit)}
	}
	factor := SampleSize(cfg.Width, cfg.Height, n.Config)
	log.WithFields(logrus.Fields{
		"format": format,
		"width":  cfg.Width,
		"height": cfg.Height,
		"sample": factor,
	}).Debug("decoded bounds")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := decodePixels(ctx, src, cfg.Width, cfg.Height, factor)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o, err := sourceOrientation(ctx, src)
	if err != nil {
		log.WithError(err).Debug("orientation unavailable, assuming normal")
		o = Normal
	}
	if o != Normal {
		w, h := img.Rect.Dx(), img.Rect.Dy()
		if o.Swaps() {
			w, h = h, w
		}
		log.WithFields(logrus.Fields{"orientation": o, "width": w, "height": h}).Debug("rotating")
	}
	return Rotate(img, o), nil
}

func decodeConfig(ctx context.Context, src source.ImageSource) (image.Config, string, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return image.Config{}, "", err
	}
	defer r.Close()
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", &DecodeError{URI: src.URI(), Pass: passBounds, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", &DecodeError{URI: src.URI(), Pass: passBounds,
			Err: fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)}
	}
	return cfg, format, nil
}

func decodePixels(ctx context.Context, src source.ImageSource, w, h, factor int) (*image.NRGBA, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, &DecodeError{URI: src.URI(), Pass: passPixels, Err: err}
	}
	if factor == 1 {
		return imaging.Clone(img), nil
	}
	sw, sh := sampledDims(w, h, factor)
	return imaging.Resize(img, sw, sh, imaging.Box), nil
}
