//go:build linux

package main

import "golang.org/x/sys/unix"

// disableInputEcho turns off stdin echo so keys typed between prompts do not
// land on the screen before the next redraw. Raw mode during a prompt saves
// and restores this state, so echo stays off across prompts.
func disableInputEcho(fd int) (func(), error) {
	termState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	updated := *termState
	updated.Lflag &^= unix.ECHO

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &updated); err != nil {
		return nil, err
	}

	return func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, termState)
	}, nil
}
