//go:build !linux

package main

import "errors"

var errEchoUnsupported = errors.New("echo suppression requires linux")

func disableInputEcho(int) (func(), error) {
	return nil, errEchoUnsupported
}
