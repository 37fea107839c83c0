package config

import (
	"os"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/detector"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/display"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/normalize"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/request"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/pkg/errors"
)

// Client is the http client used for remote sources.
func (f *Flags) Client() *source.Client {
	return source.NewClient(f.CacheBytes, f.DumpHTTP)
}

func (f *Flags) Detector() (face.Detector, error) {
	if f.Faces != "" {
		d, err := detector.LoadFixture(f.Faces)
		if err != nil {
			return nil, errors.Wrap(err, "detector.LoadFixture")
		}
		return d, nil
	}
	d, err := detector.LoadPigo(f.Cascade, f.DetectorOptions())
	if err != nil {
		return nil, errors.Wrap(err, "detector.LoadPigo")
	}
	return d, nil
}

// Display picks the outputs: a png directory, ansi art on out, or the log
// when neither is configured.
func (f *Flags) Display(out *os.File) (display.Display, error) {
	var m display.Multi
	if f.Out != "" {
		d, err := display.NewPNGDir(f.Out)
		if err != nil {
			return nil, err
		}
		m = append(m, d)
	}
	if f.ANSI {
		m = append(m, display.NewANSI(out))
	}
	switch len(m) {
	case 0:
		return display.Log{}, nil
	case 1:
		return m[0], nil
	}
	return m, nil
}

func (f *Flags) Pipeline(out *os.File) (*request.Pipeline, error) {
	d, err := f.Detector()
	if err != nil {
		return nil, err
	}
	disp, err := f.Display(out)
	if err != nil {
		return nil, err
	}
	return request.New(
		request.WithDetector(d),
		request.WithDisplay(disp),
		request.WithNormalizer(normalize.New(f.NormalizeConfig())),
	)
}
