// Package overlay draws detected faces over an image: the bounding box, the
// eyebrow, eye and nose contours as polylines, and a dot on every contour point.
package overlay

import (
	"image"
	"image/color"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
)

// Style holds the fixed paints of the overlay.
type Style struct {
	BoxColor  color.Color
	BoxWidth  float32
	LineColor color.Color
	LineWidth float32
	DotColor  color.Color
	DotRadius float32
}

func DefaultStyle() Style {
	return Style{
		BoxColor:  color.NRGBA{R: 255, A: 255},
		BoxWidth:  20,
		LineColor: color.NRGBA{G: 255, A: 255},
		LineWidth: 12,
		DotColor:  color.NRGBA{R: 255, A: 255},
		DotRadius: 4,
	}
}

type group struct {
	contour face.ContourType
	closed  bool
}

// Eyebrow ridges and the nose are open curves, eyes are loops.
var groups = []group{
	{face.LeftEyebrowTop, false},
	{face.RightEyebrowTop, false},
	{face.LeftEye, true},
	{face.RightEye, true},
	{face.NoseBridge, false},
	{face.NoseBottom, false},
}

type Renderer struct {
	Style Style
}

func New(s Style) *Renderer { return &Renderer{Style: s} }

// Render draws faces with DefaultStyle.
func Render(base *image.NRGBA, faces []face.Face) *image.NRGBA {
	return New(DefaultStyle()).Render(base, faces)
}

// Render returns a copy of base with faces drawn over it. base is left untouched.
func (r *Renderer) Render(base *image.NRGBA, faces []face.Face) *image.NRGBA {
	out := &image.NRGBA{
		Pix:    append([]uint8(nil), base.Pix...),
		Stride: base.Stride,
		Rect:   base.Rect,
	}
	r.Paint(&rasterPainter{dst: out}, faces)
	return out
}

// Paint sends every face's geometry to p, in order.
func (r *Renderer) Paint(p Painter, faces []face.Face) {
	for i := range faces {
		r.paintFace(p, &faces[i])
	}
}

func (r *Renderer) paintFace(p Painter, f *face.Face) {
	s := r.Style
	box := Stroke{Color: s.BoxColor, Width: s.BoxWidth, Square: true}
	tl := face.Point{X: f.Box.Left, Y: f.Box.Top}
	tr := face.Point{X: f.Box.Right, Y: f.Box.Top}
	br := face.Point{X: f.Box.Right, Y: f.Box.Bottom}
	bl := face.Point{X: f.Box.Left, Y: f.Box.Bottom}
	p.Line(tl, tr, box)
	p.Line(tr, br, box)
	p.Line(br, bl, box)
	p.Line(bl, tl, box)

	line := Stroke{Color: s.LineColor, Width: s.LineWidth}
	for _, g := range groups {
		pts := f.Contour(g.contour)
		if len(pts) == 0 {
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			p.Line(pts[i], pts[i+1], line)
		}
		if g.closed && len(pts) > 1 {
			p.Line(pts[len(pts)-1], pts[0], line)
		}
		for _, pt := range pts {
			p.Dot(pt, s.DotRadius, s.DotColor)
		}
	}
}
