// Package state holds the data shared between the sampler and the presenter.
package state

import (
	"sync"

	"github.com/srodi/proctop/pkg/types"
)

// View is a consistent copy of the shared state taken under one lock hold.
type View struct {
	Snapshot types.Snapshot
	// Detail is nil when no process is under detailed monitoring.
	Detail *types.Detail
}

// Shared guards the latest snapshot and the detail target. Callers must do
// their I/O before calling in; no method blocks while holding the lock.
type Shared struct {
	mu       sync.Mutex
	snapshot types.Snapshot
	target   int32
	active   bool
	sample   *types.DetailSample
	err      error
}

// New returns an empty Shared with no snapshot and no detail target.
func New() *Shared {
	return &Shared{}
}

// Read returns the current snapshot and detail target as one pair.
func (s *Shared) Read() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Snapshot: s.snapshot}
	if s.active {
		d := types.Detail{PID: s.target, Err: s.err}
		if s.sample != nil {
			sample := *s.sample
			sample.ThreadList = append([]types.ThreadTimes(nil), s.sample.ThreadList...)
			d.Sample = &sample
		}
		v.Detail = &d
	}
	return v
}

// ReplaceSnapshot swaps in a new snapshot wholesale.
func (s *Shared) ReplaceSnapshot(snap types.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// DetailTarget returns the pid under detailed monitoring, if any.
func (s *Shared) DetailTarget() (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.active
}

// SetDetailTarget starts (or restarts) detailed monitoring of pid and drops
// any data gathered for the previous target.
func (s *Shared) SetDetailTarget(pid int32) {
	s.mu.Lock()
	s.setTargetLocked(pid)
	s.mu.Unlock()
}

// StartDetail sets pid as the detail target only if none is active. It
// reports whether the target was set.
func (s *Shared) StartDetail(pid int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.setTargetLocked(pid)
	return true
}

// ClearDetailTarget stops detailed monitoring. It reports whether a target
// was active.
func (s *Shared) ClearDetailTarget() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.active
	s.target, s.active, s.sample, s.err = 0, false, nil, nil
	return was
}

// ReplaceDetail stores the latest detail sample, or err when pid could not be
// resolved. Data for a pid that is no longer the target is discarded; the
// return value reports whether it was stored.
func (s *Shared) ReplaceDetail(pid int32, sample *types.DetailSample, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceDetailLocked(pid, sample, err)
}

// Publish replaces the snapshot and, when detail is non-nil, the detail data
// in a single critical section so readers never see one without the other.
func (s *Shared) Publish(snap types.Snapshot, detail *types.Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	if detail != nil {
		s.replaceDetailLocked(detail.PID, detail.Sample, detail.Err)
	}
}

func (s *Shared) setTargetLocked(pid int32) {
	s.target, s.active, s.sample, s.err = pid, true, nil, nil
}

func (s *Shared) replaceDetailLocked(pid int32, sample *types.DetailSample, err error) bool {
	if !s.active || s.target != pid {
		return false
	}
	if err != nil {
		s.sample, s.err = nil, err
		return true
	}
	s.sample, s.err = sample, nil
	return true
}
