//go:build !linux
// +build !linux

package source

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("changing priority or affinity requires linux")

// MinNice and MaxNice bound the niceness range accepted by SetPriority.
const (
	MinNice = -20
	MaxNice = 19
)

// SetPriority always fails on unsupported platforms.
func (s *Source) SetPriority(_ context.Context, _ int32, _ int) error {
	return errUnsupported
}

// SetAffinity always fails on unsupported platforms.
func (s *Source) SetAffinity(_ context.Context, _ int32, _ []int) error {
	return errUnsupported
}
