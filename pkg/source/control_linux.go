//go:build linux
// +build linux

package source

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// MinNice and MaxNice bound the niceness range accepted by SetPriority.
const (
	MinNice = -20
	MaxNice = 19
)

// SetPriority changes the niceness of pid. Raising priority (negative values)
// usually requires elevated privileges.
func (s *Source) SetPriority(_ context.Context, pid int32, nice int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid: %d", pid)
	}
	if nice < MinNice || nice > MaxNice {
		return fmt.Errorf("nice value must be between %d and %d, got %d", MinNice, MaxNice, nice)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, int(pid), nice); err != nil {
		return fmt.Errorf("setting priority of pid %d: %w", pid, classify(err))
	}
	return nil
}

// SetAffinity pins pid to exactly the given cores in one call.
func (s *Source) SetAffinity(_ context.Context, pid int32, cores []int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid: %d", pid)
	}
	if len(cores) == 0 {
		return fmt.Errorf("empty core list")
	}
	var set unix.CPUSet
	set.Zero()
	for _, c := range cores {
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(int(pid), &set); err != nil {
		return fmt.Errorf("setting affinity of pid %d: %w", pid, classify(err))
	}
	return nil
}
