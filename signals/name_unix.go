//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package signals

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Name returns the conventional name of a signal number, such as SIGINT.
func Name(sig int) string {
	if name := unix.SignalName(syscall.Signal(sig)); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", sig)
}

// Lookup returns the signal with the given conventional name.
func Lookup(name string) (syscall.Signal, bool) {
	sig := unix.SignalNum(name)
	return sig, sig != 0
}
