// Package config collects command line flags. Defaults come from the
// environment and an optional .env file.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/normalize"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envPrefix = "CONTOUR_"

type Flags struct {
	LogLevel        string
	MaxDimension    int
	MaxPixels       int64
	MaxSourcePixels int64
	Faces           string
	Cascade         string
	Realtime        bool
	Out             string
	ANSI            bool
	CameraCmd       string
	DumpHTTP        bool
	CacheBytes      int64
}

// Env is a view of configuration variables: .env file values overlaid by the
// process environment.
type Env map[string]string

// LoadEnv reads the .env files that exist among paths. Missing files are not
// an error.
func LoadEnv(paths ...string) (Env, error) {
	env := Env{}
	for _, p := range paths {
		m, err := godotenv.Read(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "godotenv.Read(%s)", p)
		}
		for k, v := range m {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, envPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

func (e Env) str(key, def string) string {
	if v, ok := e[envPrefix+key]; ok {
		return v
	}
	return def
}

func (e Env) int64(key string, def int64) int64 {
	v, ok := e[envPrefix+key]
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func (e Env) bool(key string, def bool) bool {
	v, ok := e[envPrefix+key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Register adds the flags to fs with defaults taken from env.
func Register(fs *flag.FlagSet, env Env) *Flags {
	f := Flags{}
	nc := normalize.DefaultConfig()
	fs.StringVar(&f.LogLevel, "log-level", env.str("LOG_LEVEL", "info"), "logrus level")
	fs.IntVar(&f.MaxDimension, "max-dimension", int(env.int64("MAX_DIMENSION", int64(nc.MaxDimension))), "downsample until both sides fit, 0 for no limit")
	fs.Int64Var(&f.MaxPixels, "max-pixels", env.int64("MAX_PIXELS", nc.MaxPixels), "downsample until the pixel count fits, 0 for no limit")
	fs.Int64Var(&f.MaxSourcePixels, "max-source-pixels", env.int64("MAX_SOURCE_PIXELS", nc.MaxSourcePixels), "refuse to decode larger images, 0 for no limit")
	fs.StringVar(&f.Faces, "faces", env.str("FACES", ""), "json file of recorded faces")
	fs.StringVar(&f.Cascade, "cascade", env.str("CASCADE", ""), "pigo face cascade file")
	fs.BoolVar(&f.Realtime, "realtime", env.bool("REALTIME", false), "use the fast contour-only detector preset")
	fs.StringVar(&f.Out, "out", env.str("OUT", ""), "directory for rendered png files")
	fs.BoolVar(&f.ANSI, "ansi", env.bool("ANSI", false), "draw the result as ansi art")
	fs.StringVar(&f.CameraCmd, "camera-cmd", env.str("CAMERA_CMD", ""), "capture command, {} is replaced by the output path")
	fs.BoolVar(&f.DumpHTTP, "dump-http", env.bool("DUMP_HTTP", false), "dumps http headers")
	fs.Int64Var(&f.CacheBytes, "cache-bytes", env.int64("CACHE_BYTES", 0), "http cache size")
	return &f
}

// Validate reports flag combinations that cannot work.
func (f *Flags) Validate() error {
	if f.Faces != "" && f.Cascade != "" {
		return errors.New("-faces and -cascade are mutually exclusive")
	}
	if f.Faces == "" && f.Cascade == "" {
		return errors.New("one of -faces or -cascade is required")
	}
	if f.MaxDimension < 0 || f.MaxPixels < 0 || f.MaxSourcePixels < 0 {
		return errors.New("size limits must not be negative")
	}
	return nil
}

func (f *Flags) NormalizeConfig() normalize.Config {
	return normalize.Config{MaxDimension: f.MaxDimension, MaxPixels: f.MaxPixels, MaxSourcePixels: f.MaxSourcePixels}
}

func (f *Flags) DetectorOptions() face.Options {
	if f.Realtime {
		return face.ContourOptions()
	}
	return face.AccurateOptions()
}
