//go:build linux || darwin || freebsd || netbsd || openbsd

package display

import (
	"os"

	"golang.org/x/sys/unix"
)

func terminalSize(f *os.File) (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0
	}
	return int(ws.Col), int(ws.Row)
}
