package main

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/capture"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/request"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T, input string) (*app, *bytes.Buffer) {
	none := face.DetectorFunc(func(ctx context.Context, img image.Image) ([]face.Face, error) { return nil, nil })
	p, err := request.New(request.WithDetector(none))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	out := &bytes.Buffer{}
	a := &app{
		log:      logrus.NewEntry(logrus.New()),
		out:      out,
		pipeline: p,
		gallery:  &capture.Gallery{Next: capture.Lines(strings.NewReader(input))},
	}
	a.keys = a.keyMap()
	return a, out
}

func TestHelp(t *testing.T) {
	a, out := testApp(t, "")
	require.False(t, a.keys['?'].cb(context.Background()))
	require.Equal(t, "?\tHelp\nc\tCapture from camera\nf\tGet current state\np\tPick an image path or url\nq\tQuit\n", out.String())
	require.True(t, a.keys['q'].cb(context.Background()))
}

func TestPickCancelled(t *testing.T) {
	a, out := testApp(t, "\n")
	a.keys['p'].cb(context.Background())
	require.Equal(t, "cancelled\n", out.String())
	require.Nil(t, a.pipeline.Current())

	out.Reset()
	a.keys['f'].cb(context.Background())
	require.Equal(t, "no request yet\n", out.String())

	out.Reset()
	a.keys['c'].cb(context.Background())
	require.Equal(t, "no camera command configured\n", out.String())
}

func TestPickSubmits(t *testing.T) {
	a, out := testApp(t, "/nonexistent/a.jpg\n")
	a.keys['p'].cb(context.Background())
	r := a.pipeline.Current()
	require.NotNil(t, r)
	require.Error(t, r.Wait(context.Background()))
	require.Equal(t, request.StateFailed, r.State())

	out.Reset()
	a.keys['f'].cb(context.Background())
	require.Contains(t, out.String(), "failed")
	require.Contains(t, out.String(), "/nonexistent/a.jpg")
	require.True(t, strings.HasSuffix(out.String(), ")\n"), "error shown: %q", out.String())
}
