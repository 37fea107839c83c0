package request

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/display"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/normalize"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/overlay"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/pkg/errors"
)

type Option func(p *Pipeline) error

func WithDetector(d face.Detector) Option {
	return func(p *Pipeline) error {
		p.detector = d
		return nil
	}
}

func WithDisplay(d display.Display) Option {
	return func(p *Pipeline) error {
		p.display = d
		return nil
	}
}

func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) error {
		p.normalizer = n
		return nil
	}
}

func WithRenderer(r *overlay.Renderer) Option {
	return func(p *Pipeline) error {
		p.renderer = r
		return nil
	}
}

// Pipeline turns image sources into displayed overlays. Run is synchronous;
// Submit keeps at most one request in flight.
type Pipeline struct {
	detector   face.Detector
	display    display.Display
	normalizer *normalize.Normalizer
	renderer   *overlay.Renderer

	ids     uint64
	mutex   sync.Mutex
	current *Request
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		display:    display.Log{},
		normalizer: normalize.New(normalize.DefaultConfig()),
		renderer:   overlay.New(overlay.DefaultStyle()),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.detector == nil {
		return nil, errors.New("pipeline needs a detector")
	}
	return p, nil
}

func (p *Pipeline) newRequest(ctx context.Context, src source.ImageSource) *Request {
	id := atomic.AddUint64(&p.ids, 1)
	return newRequest(id, src, logger.Entry(ctx))
}

// Run processes src to completion and returns the finished request along
// with its error.
func (p *Pipeline) Run(ctx context.Context, src source.ImageSource) (*Request, error) {
	r := p.newRequest(ctx, src)
	p.run(ctx, r)
	return r, r.Err
}

// Submit starts src in the background and cancels whatever request was
// running before it. A cancelled request never reaches the display.
func (p *Pipeline) Submit(ctx context.Context, src source.ImageSource) *Request {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r := p.newRequest(ctx, src)
	p.current, p.cancel = r, cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(ctx, r)
	}()
	return r
}

// Current is the most recently submitted request, or nil.
func (p *Pipeline) Current() *Request {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

// Close cancels the in-flight request and waits for it to wind down.
func (p *Pipeline) Close() {
	p.mutex.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mutex.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) notify(ctx context.Context, r *Request, msg string) {
	if err := p.display.Notify(ctx, msg); err != nil {
		r.log.WithError(err).Warn("notify")
	}
}

func (p *Pipeline) run(ctx context.Context, r *Request) {
	ctx = logger.WithLogEntry(ctx, r.log)
	if err := ctx.Err(); err != nil {
		r.finish(ctx, err)
		return
	}

	r.push(eventNormalize)
	img, err := p.normalizer.Normalize(ctx, r.Source)
	if err != nil {
		if ctx.Err() == nil {
			p.notify(ctx, r, "could not load image: "+err.Error())
		}
		r.finish(ctx, err)
		return
	}
	r.Image = img

	r.push(eventDetect)
	var res face.Result
	select {
	case <-ctx.Done():
		r.finish(ctx, ctx.Err())
		return
	case res = <-face.DetectAsync(ctx, p.detector, img):
	}
	if res.Err != nil {
		if ctx.Err() == nil {
			p.notify(ctx, r, res.Err.Error())
		}
		r.finish(ctx, res.Err)
		return
	}
	r.Faces = res.Faces
	p.notify(ctx, r, fmt.Sprintf("total faces = %d", len(res.Faces)))

	r.push(eventRender)
	out := p.renderer.Render(img, res.Faces)
	if err := ctx.Err(); err != nil {
		r.finish(ctx, err)
		return
	}
	r.Result = out

	if err := p.display.Show(ctx, r.Source.URI(), out); err != nil {
		r.finish(ctx, errors.Wrap(err, "display"))
		return
	}
	r.push(eventDisplay)
	r.log.WithField("faces", len(res.Faces)).Info("overlay displayed")
	r.finish(ctx, nil)
}
