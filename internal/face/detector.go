package face

import (
	"context"
	"fmt"
	"image"
)

// Detector finds faces in a normalized image. It must be safe to call from a
// goroutine other than the one that built it.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Face, error)
}

type PerformanceMode int

const (
	PerformanceFast PerformanceMode = iota + 1
	PerformanceAccurate
)

type LandmarkMode int

const (
	LandmarkNone LandmarkMode = iota + 1
	LandmarkAll
)

type ClassificationMode int

const (
	ClassificationNone ClassificationMode = iota + 1
	ClassificationAll
)

type ContourMode int

const (
	ContourNone ContourMode = iota + 1
	ContourAll
)

// Options configures a detector. Zero fields mean the detector's own default.
type Options struct {
	Performance    PerformanceMode
	Landmarks      LandmarkMode
	Classification ClassificationMode
	Contours       ContourMode
	// MinFaceSize is the smallest face to report, relative to the image width.
	MinFaceSize float32
}

// AccurateOptions is the preset used for still photos.
func AccurateOptions() Options {
	return Options{
		Performance:    PerformanceAccurate,
		Landmarks:      LandmarkAll,
		Classification: ClassificationAll,
		Contours:       ContourAll,
		MinFaceSize:    0.1,
	}
}

// ContourOptions is the lighter real-time preset: contours only.
func ContourOptions() Options {
	return Options{
		Performance:    PerformanceFast,
		Landmarks:      LandmarkNone,
		Classification: ClassificationNone,
		Contours:       ContourAll,
		MinFaceSize:    0.1,
	}
}

// DetectionError wraps any failure reported by a Detector.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string { return fmt.Sprintf("face detection failed: %v", e.Err) }
func (e *DetectionError) Unwrap() error { return e.Err }

// Result is the single value delivered by DetectAsync.
type Result struct {
	Faces []Face
	Err   error
}

// DetectAsync runs d in its own goroutine. The returned channel yields exactly
// one Result and is then closed. Errors other than context cancellation are
// wrapped in a DetectionError.
func DetectAsync(ctx context.Context, d Detector, img image.Image) <-chan Result {
	c := make(chan Result, 1)
	go func() {
		defer close(c)
		faces, err := d.Detect(ctx, img)
		if err != nil && ctx.Err() == nil {
			err = &DetectionError{Err: err}
		} else if err != nil {
			err = ctx.Err()
		}
		c <- Result{Faces: faces, Err: err}
	}()
	return c
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Face, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	return f(ctx, img)
}
