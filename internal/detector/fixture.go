// Package detector holds face.Detector implementations.
package detector

import (
	"context"
	"image"
	"io"
	"os"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fixtureFile is the on-disk layout of a recorded detection. Width and Height
// are the dimensions of the image the faces were detected on; when set, faces
// are scaled to the image handed to Detect.
type fixtureFile struct {
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
	Faces  []face.Face `json:"faces"`
}

// Fixture replays faces recorded by an external detector, such as a mobile
// vision SDK export.
type Fixture struct {
	width, height int
	faces         []face.Face
}

var _ face.Detector = &Fixture{}

func NewFixture(width, height int, faces []face.Face) *Fixture {
	return &Fixture{width: width, height: height, faces: faces}
}

// LoadFixture reads a fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "os.Open")
	}
	defer f.Close()
	return ReadFixture(f)
}

func ReadFixture(r io.Reader) (*Fixture, error) {
	var ff fixtureFile
	if err := json.NewDecoder(r).Decode(&ff); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	if (ff.Width == 0) != (ff.Height == 0) {
		return nil, errors.New("fixture needs both width and height, or neither")
	}
	for i, f := range ff.Faces {
		if f.Box.Width() < 0 || f.Box.Height() < 0 {
			return nil, errors.Errorf("face %d: inverted box %+v", i, f.Box)
		}
	}
	return NewFixture(ff.Width, ff.Height, ff.Faces), nil
}

// WriteFixture records faces detected on an image of the given size.
func WriteFixture(w io.Writer, width, height int, faces []face.Face) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(fixtureFile{Width: width, Height: height, Faces: faces}), "encode fixture")
}

func (f *Fixture) Detect(ctx context.Context, img image.Image) ([]face.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if f.width == 0 || (f.width == b.Dx() && f.height == b.Dy()) {
		return f.faces, nil
	}
	sx := float32(b.Dx()) / float32(f.width)
	sy := float32(b.Dy()) / float32(f.height)
	logger.Entry(ctx).WithField("scale_x", sx).WithField("scale_y", sy).Debug("scaling fixture faces")
	out := make([]face.Face, len(f.faces))
	for i, fc := range f.faces {
		out[i] = scaleFace(fc, sx, sy)
	}
	return out, nil
}

func scaleFace(f face.Face, sx, sy float32) face.Face {
	out := f
	out.Box = face.Box{
		Left:   f.Box.Left * sx,
		Top:    f.Box.Top * sy,
		Right:  f.Box.Right * sx,
		Bottom: f.Box.Bottom * sy,
	}
	if f.Contours != nil {
		out.Contours = make(map[face.ContourType][]face.Point, len(f.Contours))
		for c, pts := range f.Contours {
			scaled := make([]face.Point, len(pts))
			for i, p := range pts {
				scaled[i] = face.Point{X: p.X * sx, Y: p.Y * sy}
			}
			out.Contours[c] = scaled
		}
	}
	return out
}
