package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
)

const (
	cacheTTL      = time.Hour
	cacheMaxBytes = 256 * 1024 * 1024
	userAgent     = "contour-overlay/1.0"
)

// Client fetches remote images. The normalizer opens a source several times,
// so responses go through an in-memory HTTP cache.
type Client struct {
	HTTP     *http.Client
	DumpHTTP bool
	cache    *lrucache.LruCache
}

// NewClient returns a client backed by an LRU cache of maxBytes.
func NewClient(maxBytes int64, dumpHTTP bool) *Client {
	if maxBytes <= 0 {
		maxBytes = cacheMaxBytes
	}
	c := lrucache.New(maxBytes, int64(cacheTTL.Seconds()))
	return &Client{
		HTTP:     httpcache.NewTransport(c).Client(),
		DumpHTTP: dumpHTTP,
		cache:    c,
	}
}

var (
	defaultClient     *Client
	defaultClientOnce sync.Once
)

func DefaultClient() *Client {
	defaultClientOnce.Do(func() {
		defaultClient = NewClient(cacheMaxBytes, false)
	})
	return defaultClient
}

// CacheSize reports the bytes held by the response cache.
func (c *Client) CacheSize() int64 {
	if c.cache == nil {
		return 0
	}
	return c.cache.Size()
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	log := logger.Entry(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", userAgent)

	if c.DumpHTTP {
		if s, err := httputil.DumpRequest(req, false); err == nil {
			log.Debug(string(s))
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("bad http code %d", resp.StatusCode)
	}
	if c.DumpHTTP {
		if s, err := httputil.DumpResponse(resp, false); err == nil {
			log.Debug(string(s))
		}
	}
	if resp.Header.Get(httpcache.XFromCache) != "" {
		log.WithField("url", u).Trace("served from cache")
	}
	return resp, nil
}

// HTTP is a remote image behind an http or https URL.
type HTTP struct {
	URL    *url.URL
	Client *Client
}

var _ ImageSource = &HTTP{}

func (h *HTTP) URI() string { return h.URL.String() }

func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	c := h.Client
	if c == nil {
		c = DefaultClient()
	}
	resp, err := c.get(ctx, h.URL.String())
	if err != nil {
		return nil, unavailable(h.URI(), errors.Wrap(err, "http get"))
	}
	return resp.Body, nil
}
