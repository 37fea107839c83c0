// Package capture obtains image sources from the user, either by running a
// camera command into a fresh temp file or by picking an existing path or URL.
// Both resolve once; a false ok means the user backed out.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/pkg/errors"
)

const placeholder = "{}"

// Camera runs an external capture program, e.g. "fswebcam -r 1280x720 {}".
type Camera struct {
	Command []string
	Temp    TempFactory
}

// NewCamera splits cmd on whitespace. Without a {} placeholder the output
// path is appended as the last argument.
func NewCamera(cmd string, temp TempFactory) (*Camera, error) {
	args := strings.Fields(cmd)
	if len(args) == 0 {
		return nil, errors.New("empty camera command")
	}
	return &Camera{Command: args, Temp: temp}, nil
}

func (c *Camera) argv(path string) []string {
	argv := make([]string, 0, len(c.Command)+1)
	found := false
	for _, a := range c.Command {
		if strings.Contains(a, placeholder) {
			a = strings.ReplaceAll(a, placeholder, path)
			found = true
		}
		argv = append(argv, a)
	}
	if !found {
		argv = append(argv, path)
	}
	return argv
}

// Capture runs the camera command. A command that exits non-zero, leaves the
// file empty or is interrupted by ctx is treated as cancelled.
func (c *Camera) Capture(ctx context.Context) (source.ImageSource, bool, error) {
	log := logger.Entry(ctx)
	path, cleanup, err := c.Temp()
	if err != nil {
		return nil, false, errors.Wrap(err, "temp file")
	}
	argv := c.argv(path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// Output keeps stderr on the ExitError.
	if _, err := cmd.Output(); err != nil {
		cleanup()
		var exitErr *exec.ExitError
		if ctx.Err() != nil || errors.As(err, &exitErr) {
			log.WithError(err).WithField("stderr", string(stderrOf(exitErr))).Info("capture cancelled")
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "run camera command")
	}
	info, err := os.Stat(path)
	if err != nil {
		cleanup()
		return nil, false, errors.Wrap(err, "os.Stat")
	}
	if info.Size() == 0 {
		cleanup()
		log.Info("capture produced no image")
		return nil, false, nil
	}
	return source.File(path), true, nil
}

func stderrOf(e *exec.ExitError) []byte {
	if e == nil {
		return nil
	}
	return e.Stderr
}

// LineFunc returns the next line typed by the user.
type LineFunc func() (string, error)

// Lines reads newline separated input from r.
func Lines(r io.Reader) LineFunc {
	sc := bufio.NewScanner(r)
	return func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return sc.Text(), nil
	}
}

// Gallery asks for a path or URL to an existing image.
//
// Next usually blocks on a terminal and cannot be interrupted. When ctx ends
// first, the outstanding read is kept and the next Pick takes its line, so
// nothing the user typed is lost and Picks never run two reads at once.
type Gallery struct {
	Prompt io.Writer
	Next   LineFunc
	Client *source.Client

	mutex   sync.Mutex
	pending chan line
}

type line struct {
	s   string
	err error
}

func (g *Gallery) read() chan line {
	if g.pending == nil {
		c := make(chan line, 1)
		go func() {
			s, err := g.Next()
			c <- line{s, err}
		}()
		g.pending = c
	}
	return g.pending
}

// Pick prompts once. An empty answer, end of input or a done ctx is a cancel.
func (g *Gallery) Pick(ctx context.Context) (source.ImageSource, bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.Prompt != nil {
		fmt.Fprint(g.Prompt, "image path or url (empty to cancel): ")
	}
	var l line
	select {
	case <-ctx.Done():
		return nil, false, nil
	case l = <-g.read():
		g.pending = nil
	}
	if errors.Is(l.err, io.EOF) {
		return nil, false, nil
	}
	if l.err != nil {
		return nil, false, errors.Wrap(l.err, "read selection")
	}
	uri := strings.TrimSpace(l.s)
	if uri == "" {
		return nil, false, nil
	}
	src, err := source.Parse(uri, g.Client)
	if err != nil {
		return nil, false, err
	}
	return src, true, nil
}
