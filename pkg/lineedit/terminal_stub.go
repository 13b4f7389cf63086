//go:build !linux
// +build !linux

package lineedit

import (
	"errors"
	"os"
	"time"
)

var errUnsupported = errors.New("raw keystroke input requires linux")

// Terminal is a placeholder on non-Linux platforms.
type Terminal struct{}

// OpenTerminal always fails; callers fall back to NewLineSource.
func OpenTerminal(*os.File) (*Terminal, error) {
	return nil, errUnsupported
}

// EnableRaw always fails on unsupported platforms.
func (t *Terminal) EnableRaw() (func() error, error) {
	return nil, errUnsupported
}

// Poll always fails on unsupported platforms.
func (t *Terminal) Poll(time.Duration) ([]byte, error) {
	return nil, errUnsupported
}
