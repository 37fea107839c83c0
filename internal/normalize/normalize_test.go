package normalize

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// marked is a w×h gray image with a red 16×16 block in the top left corner.
func marked(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(color.NRGBA{128, 128, 128, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 16, 16), image.NewUniform(color.NRGBA{255, 0, 0, 255}), image.Point{}, draw.Src)
	return img
}

// exifSegment builds a big endian APP1 segment holding only an orientation tag.
func exifSegment(orientation uint16) []byte {
	return orientationSegment(3, 1, orientation) // SHORT
}

// orientationSegment writes the orientation entry with an arbitrary type and
// count, as found in damaged files.
func orientationSegment(typ uint16, count uint32, value uint16) []byte {
	tiff := &bytes.Buffer{}
	tiff.WriteString("MM")
	binary.Write(tiff, binary.BigEndian, uint16(42))
	binary.Write(tiff, binary.BigEndian, uint32(8))
	binary.Write(tiff, binary.BigEndian, uint16(1)) // entries
	binary.Write(tiff, binary.BigEndian, uint16(0x0112))
	binary.Write(tiff, binary.BigEndian, typ)
	binary.Write(tiff, binary.BigEndian, count)
	binary.Write(tiff, binary.BigEndian, value)
	binary.Write(tiff, binary.BigEndian, uint16(0))
	binary.Write(tiff, binary.BigEndian, uint32(0)) // no next IFD

	seg := &bytes.Buffer{}
	seg.Write([]byte{0xFF, 0xE1})
	binary.Write(seg, binary.BigEndian, uint16(2+6+tiff.Len()))
	seg.WriteString("Exif\x00\x00")
	seg.Write(tiff.Bytes())
	return seg.Bytes()
}

func jpegWithOrientation(t *testing.T, img image.Image, orientation uint16) []byte {
	t.Helper()
	if orientation == 0 {
		return jpegWithSegment(t, img, nil)
	}
	return jpegWithSegment(t, img, exifSegment(orientation))
}

func jpegWithSegment(t *testing.T, img image.Image, seg []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}))
	raw := buf.Bytes()
	out := &bytes.Buffer{}
	out.Write(raw[:2]) // SOI
	out.Write(seg)
	out.Write(raw[2:])
	return out.Bytes()
}

func isRed(c color.NRGBA) bool { return c.R > 200 && c.G < 60 && c.B < 60 }

func TestReadOrientation(t *testing.T) {
	img := marked(32, 16)
	for _, tC := range []struct {
		tag  uint16
		want Orientation
	}{
		{1, Normal}, {3, Rotate180}, {6, Rotate90}, {8, Rotate270}, {2, Normal}, {42, Normal},
	} {
		o, err := ReadOrientation(bytes.NewReader(jpegWithOrientation(t, img, tC.tag)))
		require.NoError(t, err)
		require.Equal(t, tC.want, o, "tag %d", tC.tag)
	}

	_, err := ReadOrientation(bytes.NewReader(jpegWithOrientation(t, img, 0)))
	require.Error(t, err)
}

func TestReadOrientationCorrupt(t *testing.T) {
	img := marked(32, 16)
	for _, tC := range []struct {
		desc  string
		typ   uint16
		count uint32
	}{
		{"count overflows size", 3, 0x80000001},
		{"count past segment", 3, 1000},
		{"long count", 4, 0x40000001},
		{"unknown type", 99, 1},
	} {
		t.Run(tC.desc, func(t *testing.T) {
			data := jpegWithSegment(t, img, orientationSegment(tC.typ, tC.count, 6))
			o, err := ReadOrientation(bytes.NewReader(data))
			require.Error(t, err)
			require.Equal(t, Normal, o)

			out, err := Normalize(context.Background(), &source.Bytes{Name: tC.desc, Data: data})
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 32, 16), out.Rect)
			require.True(t, isRed(out.NRGBAAt(4, 4)))
		})
	}
}

func TestCheckTIFF(t *testing.T) {
	seg := exifSegment(6)
	tiff := seg[10:]
	require.NoError(t, checkTIFF(tiff))
	require.Error(t, checkTIFF(tiff[:12]), "ifd truncated")
	require.Error(t, checkTIFF([]byte("XX\x00*\x00\x00\x00\x08")))

	loop := append([]byte(nil), tiff...)
	binary.BigEndian.PutUint32(loop[len(loop)-4:], 8) // next IFD points at itself
	require.NoError(t, checkTIFF(loop))
}

func TestNormalizeOrientation(t *testing.T) {
	const w, h = 64, 32
	testCases := []struct {
		desc         string
		tag          uint16
		wantW, wantH int
		redAt        image.Point // a point inside the red corner block after rotation
	}{
		{desc: "none", tag: 0, wantW: w, wantH: h, redAt: image.Pt(4, 4)},
		{desc: "normal", tag: 1, wantW: w, wantH: h, redAt: image.Pt(4, 4)},
		{desc: "rotate90", tag: 6, wantW: h, wantH: w, redAt: image.Pt(h-5, 4)},
		{desc: "rotate180", tag: 3, wantW: w, wantH: h, redAt: image.Pt(w-5, h-5)},
		{desc: "rotate270", tag: 8, wantW: h, wantH: w, redAt: image.Pt(4, w-5)},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			src := &source.Bytes{Name: tC.desc, Data: jpegWithOrientation(t, marked(w, h), tC.tag)}
			out, err := Normalize(context.Background(), src)
			require.NoError(t, err)
			require.Equal(t, FromEXIF(int(tC.tag)).Swaps(), tC.wantW != w)
			require.Equal(t, tC.wantW, out.Bounds().Dx())
			require.Equal(t, tC.wantH, out.Bounds().Dy())
			require.True(t, isRed(out.NRGBAAt(tC.redAt.X, tC.redAt.Y)), "pixel %v = %v", tC.redAt, out.NRGBAAt(tC.redAt.X, tC.redAt.Y))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ctx := context.Background()
	src := &source.Bytes{Data: jpegWithOrientation(t, marked(48, 24), 6)}
	first, err := Normalize(ctx, src)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, first))
	second, err := Normalize(ctx, &source.Bytes{Data: buf.Bytes()})
	require.NoError(t, err)

	require.Equal(t, first.Rect, second.Rect)
	require.Equal(t, first.Pix, second.Pix)
}

func TestNormalizeDownsample(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, marked(400, 200)))
	n := New(Config{MaxDimension: 100})
	out, err := n.Normalize(context.Background(), &source.Bytes{Data: buf.Bytes()})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 50), out.Rect)
}

func TestSampleSize(t *testing.T) {
	testCases := []struct {
		w, h int
		cfg  Config
		want int
	}{
		{100, 100, Config{}, 1},
		{100, 100, Config{MaxDimension: 100}, 1},
		{101, 50, Config{MaxDimension: 100}, 2},
		{4000, 3000, Config{MaxDimension: 1024}, 4},
		{4000, 3000, Config{MaxPixels: 1000 * 1000}, 4},
		{1, 1, Config{MaxDimension: 1, MaxPixels: 1}, 1},
		{3, 3, Config{MaxPixels: 0, MaxDimension: -1}, 1},
	}
	for _, tC := range testCases {
		got := SampleSize(tC.w, tC.h, tC.cfg)
		if got != tC.want {
			t.Fatalf("SampleSize(%d, %d, %+v) = %d, want %d", tC.w, tC.h, tC.cfg, got, tC.want)
		}
	}
}

func TestNormalizeUndecodable(t *testing.T) {
	out, err := Normalize(context.Background(), &source.Bytes{Data: []byte("definitely not an image")})
	require.Nil(t, out)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, passBounds, de.Pass)
}

func TestNormalizeTruncated(t *testing.T) {
	data := jpegWithOrientation(t, marked(128, 128), 0)
	// keep the frame header, cut into the scan
	out, err := Normalize(context.Background(), &source.Bytes{Data: data[:len(data)-10]})
	require.Nil(t, out)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, passPixels, de.Pass)
}

func TestNormalizeSourceTooLarge(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, marked(400, 200)))
	n := New(Config{MaxDimension: 100, MaxSourcePixels: 400*200 - 1})
	out, err := n.Normalize(context.Background(), &source.Bytes{Data: buf.Bytes()})
	require.Nil(t, out)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, passBounds, de.Pass)

	n.Config.MaxSourcePixels = 400 * 200
	out, err = n.Normalize(context.Background(), &source.Bytes{Data: buf.Bytes()})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 50), out.Rect)
}

func TestNormalizeUnavailable(t *testing.T) {
	out, err := Normalize(context.Background(), source.File(filepath.Join(t.TempDir(), "gone.jpg")))
	require.Nil(t, out)
	var ue *source.UnavailableError
	require.True(t, errors.As(err, &ue))
}
