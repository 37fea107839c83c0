// Package source provides uniform streamed access to image bytes, whether they
// come from a camera capture file, a picked path or a remote URL.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ImageSource is an immutable reference to image bytes that can be read more
// than once. Every Open returns a fresh stream positioned at the start.
type ImageSource interface {
	URI() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// UnavailableError reports that a source could not be opened at all.
type UnavailableError struct {
	URI string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.URI, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(uri string, err error) error {
	return &UnavailableError{URI: uri, Err: err}
}

// Parse picks an ImageSource implementation for uri. http and https URLs are
// fetched through client (DefaultClient when nil); file URLs and bare paths
// are read from disk.
func Parse(uri string, client *Client) (ImageSource, error) {
	if uri == "" {
		return nil, errors.New("empty source uri")
	}
	if !strings.Contains(uri, "://") {
		return File(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(err, "url.Parse")
	}
	switch u.Scheme {
	case "file", "content":
		p := u.Path
		if u.Host != "" && u.Scheme == "content" {
			p = "/" + u.Host + u.Path
		}
		return File(p), nil
	case "http", "https":
		if client == nil {
			client = DefaultClient()
		}
		return &HTTP{URL: u, Client: client}, nil
	}
	return nil, errors.Errorf("unsupported source scheme %q", u.Scheme)
}

// Bytes is an in-memory source, mostly useful for re-normalizing encoded output.
type Bytes struct {
	Name string
	Data []byte
}

var _ ImageSource = &Bytes{}

func (b *Bytes) URI() string {
	if b.Name == "" {
		return "mem:"
	}
	return "mem:" + b.Name
}

func (b *Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(b.URI(), err)
	}
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
