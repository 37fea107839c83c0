package request

import (
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

const (
	StateIdle        = "idle"
	StateNormalizing = "normalizing"
	StateDetecting   = "detecting"
	StateRendering   = "rendering"
	StateDisplayed   = "displayed"
	StateFailed      = "failed"
	StateCancelled   = "cancelled"
)

const (
	eventNormalize = "normalize"
	eventDetect    = "detect"
	eventRender    = "render"
	eventDisplay   = "display"
	eventFail      = "fail"
	eventCancel    = "cancel"
)

var working = []string{StateNormalizing, StateDetecting, StateRendering}

func newFSM(log *logrus.Entry) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventNormalize, Src: []string{StateIdle}, Dst: StateNormalizing},
			{Name: eventDetect, Src: []string{StateNormalizing}, Dst: StateDetecting},
			{Name: eventRender, Src: []string{StateDetecting}, Dst: StateRendering},
			{Name: eventDisplay, Src: []string{StateRendering}, Dst: StateDisplayed},
			{Name: eventFail, Src: working, Dst: StateFailed},
			{Name: eventCancel, Src: append([]string{StateIdle}, working...), Dst: StateCancelled},
		},
		fsm.Callbacks{
			"after_event": func(e *fsm.Event) {
				log.WithField("event", e.Event).Debugf("[%s -> %s]", e.Src, e.Dst)
			},
		},
	)
}

// Graph renders the request lifecycle as graphviz source.
func Graph() string {
	return fsm.Visualize(newFSM(logrus.NewEntry(logrus.New())))
}

// Terminal reports whether no further transitions can happen from state.
func Terminal(state string) bool {
	switch state {
	case StateDisplayed, StateFailed, StateCancelled:
		return true
	}
	return false
}
