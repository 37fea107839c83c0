package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"golang.org/x/image/vector"
)

// Stroke describes how a segment is drawn. Square caps extend the segment by
// half its width at both ends so that rectangle corners meet.
type Stroke struct {
	Color  color.Color
	Width  float32
	Square bool
}

// Painter receives the overlay geometry.
type Painter interface {
	Line(a, b face.Point, s Stroke)
	Dot(center face.Point, radius float32, c color.Color)
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// rasterPainter paints anti-aliased shapes onto an NRGBA image. Each shape is
// rasterized into a mask covering only its own bounds.
type rasterPainter struct {
	dst *image.NRGBA
}

var _ Painter = &rasterPainter{}

func (p *rasterPainter) Line(a, b face.Point, s Stroke) {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	l := math.Hypot(dx, dy)
	if l == 0 || s.Width <= 0 {
		return
	}
	ux, uy := float32(dx/l), float32(dy/l)
	hw := s.Width / 2
	if s.Square {
		a = face.Point{X: a.X - ux*hw, Y: a.Y - uy*hw}
		b = face.Point{X: b.X + ux*hw, Y: b.Y + uy*hw}
	}
	nx, ny := -uy*hw, ux*hw
	quad := []face.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
	p.fill(s.Color, quad, func(z *vector.Rasterizer, o face.Point) {
		z.MoveTo(quad[0].X-o.X, quad[0].Y-o.Y)
		for _, q := range quad[1:] {
			z.LineTo(q.X-o.X, q.Y-o.Y)
		}
		z.ClosePath()
	})
}

func (p *rasterPainter) Dot(c face.Point, r float32, col color.Color) {
	if r <= 0 {
		return
	}
	bounds := []face.Point{{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y + r}}
	p.fill(col, bounds, func(z *vector.Rasterizer, o face.Point) {
		x, y, k := c.X-o.X, c.Y-o.Y, r*kappa
		z.MoveTo(x+r, y)
		z.CubeTo(x+r, y+k, x+k, y+r, x, y+r)
		z.CubeTo(x-k, y+r, x-r, y+k, x-r, y)
		z.CubeTo(x-r, y-k, x-k, y-r, x, y-r)
		z.CubeTo(x+k, y-r, x+r, y-k, x+r, y)
		z.ClosePath()
	})
}

// fill rasterizes path within the bounding box of pts and composites col
// through the resulting coverage mask.
func (p *rasterPainter) fill(col color.Color, pts []face.Point, path func(z *vector.Rasterizer, origin face.Point)) {
	r := boundsOf(pts).Intersect(p.dst.Rect)
	if r.Empty() {
		return
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.DrawOp = draw.Src
	path(z, face.Point{X: float32(r.Min.X), Y: float32(r.Min.Y)})

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(p.dst, r, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
}

func boundsOf(pts []face.Point) image.Rectangle {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, q := range pts[1:] {
		minX = float32(math.Min(float64(minX), float64(q.X)))
		minY = float32(math.Min(float64(minY), float64(q.Y)))
		maxX = float32(math.Max(float64(maxX), float64(q.X)))
		maxY = float32(math.Max(float64(maxY), float64(q.Y)))
	}
	return image.Rect(
		int(math.Floor(float64(minX)))-1, int(math.Floor(float64(minY)))-1,
		int(math.Ceil(float64(maxX)))+1, int(math.Ceil(float64(maxY)))+1,
	)
}
