package face

import (
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestContourTypeText(t *testing.T) {
	for c := FaceOval; c <= RightCheek; c++ {
		b, err := c.MarshalText()
		require.NoError(t, err)
		var back ContourType
		require.NoError(t, back.UnmarshalText(b))
		require.Equal(t, c, back)
	}
	_, err := ParseContourType("THIRD_EYE")
	require.Error(t, err)
	require.Equal(t, "ContourType(99)", ContourType(99).String())
}

func TestFaceJSONKeys(t *testing.T) {
	const in = `{"box":{"left":1,"top":2,"right":3,"bottom":4},"contours":{"LEFT_EYE":[{"x":1,"y":2}]}}`
	var f Face
	require.NoError(t, json.Unmarshal([]byte(in), &f))
	require.Equal(t, Box{1, 2, 3, 4}, f.Box)
	require.Equal(t, []Point{{1, 2}}, f.Contour(LeftEye))
	require.Nil(t, f.Contour(NoseBridge))
	require.Equal(t, Uncomputed, f.SmilingProbability)
	require.Equal(t, Uncomputed, f.LeftEyeOpenProbability)
	require.Equal(t, Uncomputed, f.RightEyeOpenProbability)

	require.NoError(t, json.Unmarshal([]byte(`{"box":{},"smiling":0,"left_eye_open":0.5}`), &f))
	require.Equal(t, float32(0), f.SmilingProbability)
	require.Equal(t, float32(0.5), f.LeftEyeOpenProbability)
	require.Equal(t, Uncomputed, f.RightEyeOpenProbability)

	b, err := json.Marshal(New(Box{Right: 2, Bottom: 2}))
	require.NoError(t, err)
	var back Face
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, New(Box{Right: 2, Bottom: 2}), back)
	require.Equal(t, float32(2), back.Box.Width())
}

func TestDetectAsync(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	ctx := context.Background()

	ok := DetectorFunc(func(ctx context.Context, img image.Image) ([]Face, error) {
		return []Face{{Box: Box{0, 0, 2, 2}}}, nil
	})
	res := <-DetectAsync(ctx, ok, img)
	require.NoError(t, res.Err)
	require.Len(t, res.Faces, 1)

	boom := DetectorFunc(func(ctx context.Context, img image.Image) ([]Face, error) {
		return nil, errors.New("model not loaded")
	})
	c := DetectAsync(ctx, boom, img)
	res = <-c
	var de *DetectionError
	require.True(t, errors.As(res.Err, &de))
	_, open := <-c
	require.False(t, open)
}

func TestDetectAsyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := DetectorFunc(func(ctx context.Context, img image.Image) ([]Face, error) {
		return nil, ctx.Err()
	})
	res := <-DetectAsync(ctx, d, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	require.ErrorIs(t, res.Err, context.Canceled)
}
