package display

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type failing struct{ Log }

func (failing) Show(ctx context.Context, title string, img image.Image) error {
	return errors.New("screen off")
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestPNGDir(t *testing.T) {
	ctx := context.Background()
	d, err := NewPNGDir(t.TempDir())
	require.NoError(t, err)

	img := solid(7, 5, color.NRGBA{10, 20, 30, 255})
	require.NoError(t, d.Show(ctx, "/sdcard/DCIM/selfie.jpg", img))

	p := d.Path("/sdcard/DCIM/selfie.jpg")
	require.True(t, strings.HasSuffix(p, "selfie.contours.png"))
	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	back, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), back.Bounds())
	r, g, b, _ := back.At(3, 3).RGBA()
	require.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})

	require.True(t, strings.HasSuffix(d.Path(""), "image.contours.png"))
}

func TestANSI(t *testing.T) {
	buf := &bytes.Buffer{}
	a := &ANSI{Out: buf, Size: func() (int, int) { return 20, 10 }}
	require.NoError(t, a.Show(context.Background(), "title", solid(40, 40, color.White)))
	require.True(t, strings.HasPrefix(buf.String(), "title\n"))
	require.Contains(t, buf.String(), "\x1b[")

	buf.Reset()
	require.NoError(t, a.Notify(context.Background(), "total faces = 2"))
	require.Equal(t, "total faces = 2\n", buf.String())
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}
	m := Multi{failing{}, &ANSI{Out: buf}}
	err := m.Show(ctx, "x", solid(4, 4, color.Black))
	require.Error(t, err)
	require.Contains(t, err.Error(), "screen off")
	require.NotZero(t, buf.Len(), "later displays still run")
	require.NoError(t, m.Notify(ctx, "hi"))
}
