package detector

import (
	"context"
	"image"
	"os"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

const (
	defaultIoU        = 0.2
	defaultMinQuality = 5.0
)

// Pigo finds face bounding boxes with a pigo cascade. It produces no contours,
// so only boxes get drawn.
type Pigo struct {
	classifier *pigo.Pigo
	opts       face.Options
	MinQuality float32
}

var _ face.Detector = &Pigo{}

// LoadPigo unpacks the cascade file at path (e.g. pigo's "facefinder").
func LoadPigo(path string, opts face.Options) (*Pigo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the cascade file")
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the cascade file")
	}
	return &Pigo{classifier: classifier, opts: opts, MinQuality: defaultMinQuality}, nil
}

func (p *Pigo) params(img image.Image) pigo.CascadeParams {
	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	minSize := 20
	if p.opts.MinFaceSize > 0 {
		if s := int(p.opts.MinFaceSize * float32(cols)); s > minSize {
			minSize = s
		}
	}
	shift, scale := 0.1, 1.1
	if p.opts.Performance == face.PerformanceFast {
		shift, scale = 0.15, 1.2
	}
	// a close-up face can fill the whole frame
	maxSize := cols
	if rows < maxSize {
		maxSize = rows
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	return pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: shift,
		ScaleFactor: scale,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
}

func (p *Pigo) Detect(ctx context.Context, img image.Image) ([]face.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dets := p.classifier.RunCascade(p.params(img), 0)
	dets = p.classifier.ClusterDetections(dets, defaultIoU)
	faces := detectionsToFaces(dets, p.MinQuality)
	logger.Entry(ctx).WithField("raw", len(dets)).WithField("faces", len(faces)).Debug("pigo detections")
	return faces, nil
}

// detectionsToFaces keeps detections above minQuality. Row and Col are the
// centre of a square of side Scale.
func detectionsToFaces(dets []pigo.Detection, minQuality float32) []face.Face {
	faces := make([]face.Face, 0, len(dets))
	for _, d := range dets {
		if d.Q < minQuality {
			continue
		}
		half := float32(d.Scale) / 2
		faces = append(faces, face.New(face.Box{
			Left:   float32(d.Col) - half,
			Top:    float32(d.Row) - half,
			Right:  float32(d.Col) + half,
			Bottom: float32(d.Row) + half,
		}))
	}
	return faces
}
