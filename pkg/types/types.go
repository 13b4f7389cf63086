package types

import "time"

// DefaultTopK controls how many processes a snapshot ranks by resident memory.
const DefaultTopK = 20

// UnknownThreads marks a thread count that could not be read.
const UnknownThreads = -1

// SelfClassification labels the monitor's own entry in every snapshot.
const SelfClassification = "this monitor"

// ProcessSample is one process's state at a sampling instant.
type ProcessSample struct {
	PID            int32
	Name           string
	RSSMB          float64
	VMSMB          float64
	PeakRSSMB      float64
	CPUPercent     float64
	Threads        int
	PriorityLabel  string
	Classification string
}

// Snapshot is one ranked set of samples, published atomically by the sampler.
// Rows holds at most DefaultTopK entries sorted by RSS, Self is the monitor's
// own process and is always present.
type Snapshot struct {
	Rows  []ProcessSample
	Self  ProcessSample
	Taken time.Time // zero before the first cycle completes
}

// Entries returns the ranked rows followed by the self entry.
func (s Snapshot) Entries() []ProcessSample {
	if s.Taken.IsZero() {
		return nil
	}
	out := make([]ProcessSample, 0, len(s.Rows)+1)
	out = append(out, s.Rows...)
	return append(out, s.Self)
}

// Row returns the entry at a 1-based display index, counting the self entry last.
func (s Snapshot) Row(index int) (ProcessSample, bool) {
	entries := s.Entries()
	if index < 1 || index > len(entries) {
		return ProcessSample{}, false
	}
	return entries[index-1], true
}

// Status is the coarse scheduler state reported in the detail panel.
type Status string

const (
	StatusRunning  Status = "running"
	StatusSleeping Status = "sleeping"
	StatusStopped  Status = "stopped"
	StatusZombie   Status = "zombie"
	StatusUnknown  Status = "unknown"
)

// ThreadTimes holds the CPU time a single thread has consumed.
type ThreadTimes struct {
	ID            int32
	UserSeconds   float64
	SystemSeconds float64
}

// DetailSample is the deep view of the process under detailed monitoring.
type DetailSample struct {
	PID        int32
	Name       string
	CPUPercent float64
	RSSMB      float64
	VMSMB      float64
	Threads    int
	Status     Status
	ThreadList []ThreadTimes
}

// Detail pairs the detail target with its latest sample. Err is set instead of
// Sample when the target could not be resolved on the last cycle; both are
// empty until the sampler has visited the target once.
type Detail struct {
	PID    int32
	Sample *DetailSample
	Err    error
}

// Pending reports whether the target has not been sampled yet.
func (d Detail) Pending() bool {
	return d.Sample == nil && d.Err == nil
}
