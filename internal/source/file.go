package source

import (
	"context"
	"io"
	"os"
)

// File is a local path, such as a camera capture temp file or a picked image.
type File string

var _ ImageSource = File("")

func (f File) URI() string { return "file://" + string(f) }

func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(f.URI(), err)
	}
	fh, err := os.Open(string(f))
	if err != nil {
		return nil, unavailable(f.URI(), err)
	}
	return fh, nil
}
