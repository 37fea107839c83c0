package main

import (
	"context"
	"fmt"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/request"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/mattn/go-tty"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// scanKeys dispatches single key presses until q or ctx is done.
func (a *app) scanKeys(ctx context.Context, t *tty.TTY) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		r, err := t.ReadRune()
		if err != nil {
			return err
		}
		h, ok := a.keys[r]
		if !ok {
			continue
		}
		if h.cb(ctx) {
			return nil
		}
	}
}

type key struct {
	// cb returns true to quit.
	cb   func(context.Context) bool
	desc string
}

type kmt = map[rune]key

func (a *app) keyMap() kmt {
	var keys kmt
	keys = kmt{
		'c': {
			desc: "Capture from camera",
			cb: func(ctx context.Context) bool {
				if a.camera == nil {
					fmt.Fprintln(a.out, "no camera command configured")
					return false
				}
				a.submit(ctx, a.camera.Capture)
				return false
			},
		},
		'p': {
			desc: "Pick an image path or url",
			cb: func(ctx context.Context) bool {
				a.submit(ctx, a.gallery.Pick)
				return false
			},
		},
		'f': {
			desc: "Get current state",
			cb: func(ctx context.Context) bool {
				r := a.pipeline.Current()
				switch {
				case r == nil:
					fmt.Fprintln(a.out, "no request yet")
				case request.Terminal(r.State()) && r.Err != nil:
					fmt.Fprintf(a.out, "%s (%v)\n", r, r.Err)
				default:
					fmt.Fprintln(a.out, r)
				}
				return false
			},
		},
		'q': {
			desc: "Quit",
			cb:   func(ctx context.Context) bool { return true },
		},
		'?': {
			desc: "Help",
			cb: func(ctx context.Context) bool {
				ks := maps.Keys(keys)
				slices.Sort(ks)
				for _, k := range ks {
					fmt.Fprintf(a.out, "%s\t%s\n", string(k), keys[k].desc)
				}
				return false
			},
		},
	}
	return keys
}

// submit resolves one source from get and hands it to the pipeline. A
// cancelled capture or pick is dropped quietly.
func (a *app) submit(ctx context.Context, get func(context.Context) (source.ImageSource, bool, error)) {
	src, ok, err := get(ctx)
	if err != nil {
		a.log.WithError(err).Error("no image")
		return
	}
	if !ok {
		fmt.Fprintln(a.out, "cancelled")
		return
	}
	a.pipeline.Submit(ctx, src)
}
