package prim

import (
	"bufio"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/deepnoodle-ai/lvm/vm"
)

// OpenFlag is a portable open mode understood by Open.
type OpenFlag uint32

const (
	ReadOnly OpenFlag = 1 << iota
	WriteOnly
	ReadWrite
	Append
	Create
	Truncate
	Exclusive
	NonBlock
)

// FlagMask converts portable open flags to host flags.
func FlagMask(flags OpenFlag) int {
	var m int
	switch {
	case flags&ReadWrite != 0:
		m |= os.O_RDWR
	case flags&WriteOnly != 0:
		m |= os.O_WRONLY
	default:
		m |= os.O_RDONLY
	}
	if flags&Append != 0 {
		m |= os.O_APPEND
	}
	if flags&Create != 0 {
		m |= os.O_CREATE
	}
	if flags&Truncate != 0 {
		m |= os.O_TRUNC
	}
	if flags&Exclusive != 0 {
		m |= os.O_EXCL
	}
	if flags&NonBlock != 0 {
		m |= syscall.O_NONBLOCK
	}
	return m
}

// Files is a table of open files addressed by small integer handles. It is
// owned by one execution context.
type Files struct {
	files map[int]*os.File
	next  int
}

// NewFiles returns a table with the standard streams at handles 0, 1 and 2.
func NewFiles() *Files {
	return &Files{
		files: map[int]*os.File{0: os.Stdin, 1: os.Stdout, 2: os.Stderr},
		next:  3,
	}
}

// Open opens path and returns its handle. Failures raise a system error
// carrying the OS error code.
func (t *Files) Open(ec *vm.ExecutionContext, path string, flags OpenFlag, perm os.FileMode) int {
	f, err := os.OpenFile(path, FlagMask(flags), perm)
	if err != nil {
		raiseIO(ec, err)
	}
	h := t.next
	t.next++
	t.files[h] = f
	return h
}

// Close closes the file behind handle h.
func (t *Files) Close(ec *vm.ExecutionContext, h int) {
	f := t.lookup(ec, h)
	delete(t.files, h)
	if err := f.Close(); err != nil {
		raiseIO(ec, err)
	}
}

func (t *Files) lookup(ec *vm.ExecutionContext, h int) *os.File {
	f, ok := t.files[h]
	if !ok {
		raiseIO(ec, syscall.EBADF)
	}
	return f
}

// Channel is a buffered stream over an open file.
type Channel struct {
	handle int
	r      *bufio.Reader
	w      *bufio.Writer
	closed bool
}

// OpenDescriptor wraps handle h in a channel for input or output.
func (t *Files) OpenDescriptor(ec *vm.ExecutionContext, h int, output bool) *Channel {
	f := t.lookup(ec, h)
	ch := &Channel{handle: h}
	if output {
		ch.w = bufio.NewWriter(f)
	} else {
		ch.r = bufio.NewReader(f)
	}
	return ch
}

// Handle returns the file handle the channel reads or writes.
func (c *Channel) Handle() int { return c.handle }

func (c *Channel) check(ec *vm.ExecutionContext, output bool) {
	if c.closed || (output && c.w == nil) || (!output && c.r == nil) {
		raiseIO(ec, syscall.EBADF)
	}
}

// OutputChar writes one byte.
func (c *Channel) OutputChar(ec *vm.ExecutionContext, b byte) {
	c.check(ec, true)
	if err := c.w.WriteByte(b); err != nil {
		raiseIO(ec, err)
	}
}

// Output writes n bytes of s starting at offset off.
func (c *Channel) Output(ec *vm.ExecutionContext, s string, off, n int) {
	c.check(ec, true)
	if off < 0 || n < 0 || off+n > len(s) {
		ec.RaiseInvalidArgument("output: substring out of range")
	}
	if _, err := c.w.WriteString(s[off : off+n]); err != nil {
		raiseIO(ec, err)
	}
}

// Flush writes all buffered output.
func (c *Channel) Flush(ec *vm.ExecutionContext) {
	c.check(ec, true)
	if err := c.w.Flush(); err != nil {
		raiseIO(ec, err)
	}
}

// FlushPartial attempts a flush and reports whether the buffer is empty
// afterwards. A flush that would block leaves output buffered.
func (c *Channel) FlushPartial(ec *vm.ExecutionContext) bool {
	c.check(ec, true)
	if err := c.w.Flush(); err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return false
		}
		raiseIO(ec, err)
	}
	return c.w.Buffered() == 0
}

// InputChar reads one byte. End of input raises eof.
func (c *Channel) InputChar(ec *vm.ExecutionContext) byte {
	c.check(ec, false)
	b, err := c.r.ReadByte()
	if err != nil {
		raiseIO(ec, err)
	}
	return b
}

// CloseChannel flushes pending output and marks the channel closed. The
// underlying file stays open.
func (c *Channel) CloseChannel(ec *vm.ExecutionContext) {
	if c.closed {
		return
	}
	if c.w != nil {
		c.Flush(ec)
	}
	c.closed = true
}

// raiseIO classifies an I/O error: end of input, an operation that would
// block, or a system error with the OS error code (-1 when unknown).
func raiseIO(ec *vm.ExecutionContext, err error) {
	if errors.Is(err, io.EOF) {
		ec.RaiseEOF()
	}
	if errors.Is(err, syscall.EAGAIN) {
		ec.RaiseSysBlockedIO()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		ec.RaiseSysError(int(errno), errnoMessage(errno))
	}
	ec.RaiseSysError(-1, err.Error())
}
