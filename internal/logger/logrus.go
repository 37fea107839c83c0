package logger

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	ctxKeyLog ctxKey = iota
)

var fallback = logrus.NewEntry(logrus.StandardLogger())

// New builds the process logger. Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.Level = lvl
	return log
}

// Entry returns the entry stored in ctx, or the standard logger when there is none.
func Entry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKeyLog).(*logrus.Entry); ok && e != nil {
		return e
	}
	return fallback
}

func WithLogEntry(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKeyLog, e)
}

// WithField stores a copy of the context entry with one more field.
func WithField(ctx context.Context, key string, value interface{}) (context.Context, *logrus.Entry) {
	e := Entry(ctx).WithField(key, value)
	return WithLogEntry(ctx, e), e
}
