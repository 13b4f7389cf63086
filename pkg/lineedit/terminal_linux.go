//go:build linux
// +build linux

package lineedit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal reads raw keystrokes from a tty.
type Terminal struct {
	fd  int
	buf []byte
}

// OpenTerminal wraps f, which must be a terminal.
func OpenTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", f.Name())
	}
	return &Terminal{fd: fd, buf: make([]byte, 256)}, nil
}

// EnableRaw switches the tty to raw mode so keys arrive one at a time without
// echo. The returned func restores the previous mode.
func (t *Terminal) EnableRaw() (func() error, error) {
	st, err := term.MakeRaw(t.fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}
	return func() error { return term.Restore(t.fd, st) }, nil
}

// Poll waits up to timeout for input and returns whatever bytes are ready.
func (t *Terminal) Poll(timeout time.Duration) ([]byte, error) {
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("polling terminal: %w", err)
	}
	if n == 0 || fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return nil, nil
	}

	k, err := unix.Read(t.fd, t.buf)
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading terminal: %w", err)
	}
	if k == 0 {
		return nil, io.EOF
	}
	out := make([]byte, k)
	copy(out, t.buf[:k])
	return out, nil
}
