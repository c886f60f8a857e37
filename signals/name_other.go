//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package signals

import (
	"fmt"
	"syscall"
)

// Name returns a description of a signal number.
func Name(sig int) string {
	return fmt.Sprintf("signal %d", sig)
}

// Lookup recognizes only the signals available on every platform.
func Lookup(name string) (syscall.Signal, bool) {
	switch name {
	case "SIGINT":
		return syscall.SIGINT, true
	case "SIGTERM":
		return syscall.SIGTERM, true
	case "SIGKILL":
		return syscall.SIGKILL, true
	}
	return 0, false
}
