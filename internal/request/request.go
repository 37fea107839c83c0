// Package request carries one capture or pick through normalize, detect,
// render and display. Each Request owns its image, faces and result; nothing
// is shared between requests.
package request

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/face"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Request struct {
	ID     uint64
	Source source.ImageSource

	// Set as the request advances. Read them after Done is closed.
	Image  *image.NRGBA
	Faces  []face.Face
	Result *image.NRGBA
	Err    error

	log  *logrus.Entry
	fsm  *fsm.FSM
	done chan struct{}
	once sync.Once
}

func newRequest(id uint64, src source.ImageSource, log *logrus.Entry) *Request {
	log = log.WithField("request", id).WithField("source", src.URI())
	return &Request{
		ID:     id,
		Source: src,
		log:    log,
		fsm:    newFSM(log),
		done:   make(chan struct{}),
	}
}

// State is safe to call while the request is running.
func (r *Request) State() string { return r.fsm.Current() }

// Done is closed once the request reaches a terminal state.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the request finishes or ctx is done.
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return r.Err
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("request %d %s: %s", r.ID, r.Source.URI(), r.State())
}

func (r *Request) push(event string) {
	err := r.fsm.Event(event)
	if _, ok := err.(fsm.NoTransitionError); err != nil && !ok {
		r.log.WithError(err).WithField("state", r.fsm.Current()).Error("push event")
	}
}

// finish records err, moves to failed or cancelled and closes Done.
func (r *Request) finish(ctx context.Context, err error) {
	r.once.Do(func() {
		defer close(r.done)
		if err == nil {
			return
		}
		r.Err = err
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			r.push(eventCancel)
			r.log.Info("request cancelled")
			return
		}
		r.push(eventFail)
		r.log.WithError(err).Warn("request failed")
	})
}
