package normalize

import (
	"bytes"
	"context"
	"image"
	"io"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the clockwise rotation needed to show stored pixels upright.
type Orientation int

const (
	Normal Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (o Orientation) String() string {
	switch o {
	case Rotate90:
		return "ROTATE_90"
	case Rotate180:
		return "ROTATE_180"
	case Rotate270:
		return "ROTATE_270"
	}
	return "NORMAL"
}

// Swaps reports whether applying o exchanges width and height.
func (o Orientation) Swaps() bool { return o == Rotate90 || o == Rotate270 }

// FromEXIF maps an EXIF orientation value. Mirrored and unknown values are Normal.
func FromEXIF(v int) Orientation {
	switch v {
	case 6:
		return Rotate90
	case 3:
		return Rotate180
	case 8:
		return Rotate270
	}
	return Normal
}

// ReadOrientation reads the EXIF orientation tag from a JPEG or TIFF stream.
// The tag structure is bounds checked before it is decoded.
func ReadOrientation(r io.Reader) (Orientation, error) {
	payload, err := exifPayload(r)
	if err != nil {
		return Normal, err
	}
	if err := checkTIFF(payload); err != nil {
		return Normal, errors.Wrap(err, "corrupt exif")
	}
	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return Normal, errors.Wrap(err, "exif.Decode")
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Normal, errors.Wrap(err, "exif.Get")
	}
	v, err := tag.Int(0)
	if err != nil {
		return Normal, errors.Wrap(err, "tag.Int")
	}
	return FromEXIF(v), nil
}

// sourceOrientation never fails: any metadata problem means Normal.
func sourceOrientation(ctx context.Context, src source.ImageSource) (Orientation, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return Normal, err
	}
	defer r.Close()
	return ReadOrientation(r)
}

// Rotate returns a new image rotated clockwise per o. Normal returns img itself.
func Rotate(img *image.NRGBA, o Orientation) *image.NRGBA {
	switch o {
	case Rotate90:
		return imaging.Rotate270(img) // imaging rotates counter-clockwise
	case Rotate180:
		return imaging.Rotate180(img)
	case Rotate270:
		return imaging.Rotate90(img)
	}
	return img
}
