package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("CONTOUR_MAX_DIMENSION=512\nCONTOUR_ANSI=true\nCONTOUR_OUT=/tmp/a\n"), 0600))
	t.Setenv("CONTOUR_OUT", "/tmp/b")

	env, err := LoadEnv(filepath.Join(dir, "missing.env"), p)
	require.NoError(t, err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := Register(fs, env)
	require.NoError(t, fs.Parse([]string{"-faces", "faces.json"}))

	require.Equal(t, 512, f.MaxDimension)
	require.True(t, f.ANSI)
	require.Equal(t, "/tmp/b", f.Out, "process environment wins over .env")
	require.Equal(t, "faces.json", f.Faces)
	require.NoError(t, f.Validate())
}

func TestFlagsOverrideEnv(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := Register(fs, Env{"CONTOUR_MAX_PIXELS": "nonsense", "CONTOUR_REALTIME": "1", "CONTOUR_MAX_SOURCE_PIXELS": "1000"})
	require.NoError(t, fs.Parse([]string{"-max-dimension", "64", "-cascade", "facefinder"}))

	require.Equal(t, 64, f.MaxDimension)
	require.Equal(t, int64(12*1024*1024), f.MaxPixels, "unparsable env falls back to the default")
	require.Equal(t, face.ContourOptions(), f.DetectorOptions())
	require.Equal(t, int64(12*1024*1024), f.NormalizeConfig().MaxPixels)
	require.Equal(t, int64(1000), f.NormalizeConfig().MaxSourcePixels)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		desc string
		f    Flags
		ok   bool
	}{
		{desc: "faces", f: Flags{Faces: "a.json"}, ok: true},
		{desc: "cascade", f: Flags{Cascade: "facefinder"}, ok: true},
		{desc: "none", f: Flags{}},
		{desc: "both", f: Flags{Faces: "a.json", Cascade: "facefinder"}},
		{desc: "negative", f: Flags{Faces: "a.json", MaxDimension: -1}},
		{desc: "negative source", f: Flags{Faces: "a.json", MaxSourcePixels: -1}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			err := tC.f.Validate()
			if tC.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
