package prim

import (
	"strings"
	"syscall"
)

// errnoMessage renders an OS error code the way strerror does, e.g.
// "Bad file descriptor".
func errnoMessage(errno syscall.Errno) string {
	msg := errno.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
