//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package display

import "os"

func terminalSize(f *os.File) (cols, rows int) { return 0, 0 }
