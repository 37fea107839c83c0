package capture

import (
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

// TempFactory hands out fresh file paths for captures. The returned cleanup
// removes that one file and is safe to call more than once.
type TempFactory func() (path string, cleanup func() error, err error)

// NewTempFactory creates a private directory for captures. The second return
// value removes the directory and everything left in it.
func NewTempFactory(ext string) (TempFactory, func() error, error) {
	dir, err := os.MkdirTemp(os.TempDir(), "contour-overlay-")
	if err != nil {
		return nil, nil, err
	}
	var counter uint64
	return func() (string, func() error, error) {
			i := atomic.AddUint64(&counter, 1)
			dst := filepath.Join(dir, "tmp_image_file_"+strconv.FormatUint(i, 16)+ext)
			f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
			if err != nil {
				return "", nil, err
			}
			if err := f.Close(); err != nil {
				return "", nil, err
			}
			return dst, func() error {
				if dst == "" {
					return nil
				}
				defer func() { dst = "" }()
				err := os.Remove(dst)
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}, nil
		}, func() error {
			return os.RemoveAll(dir)
		}, nil
}
