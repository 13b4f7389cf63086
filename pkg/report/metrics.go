package report

import (
	"sort"

	"github.com/srodi/proctop/pkg/source"
	"github.com/srodi/proctop/pkg/types"
)

// TopByRSS orders candidates by resident memory, largest first, and keeps at
// most topK of them. Ties fall back to pid so the order is stable across cycles.
// The input slice is not modified.
func TopByRSS(candidates []source.Info, topK int) []source.Info {
	ranked := make([]source.Info, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RSSBytes == ranked[j].RSSBytes {
			return ranked[i].PID < ranked[j].PID
		}
		return ranked[i].RSSBytes > ranked[j].RSSBytes
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// PeakTracker remembers the highest RSS seen per pid for the life of the run.
// A reused pid inherits the previous owner's peak until it is exceeded.
type PeakTracker struct {
	peaks map[int32]float64
}

// NewPeakTracker returns an empty tracker.
func NewPeakTracker() *PeakTracker {
	return &PeakTracker{peaks: make(map[int32]float64)}
}

// Observe records rssMB for pid and returns the peak including this observation.
func (t *PeakTracker) Observe(pid int32, rssMB float64) float64 {
	peak := max(t.peaks[pid], rssMB)
	t.peaks[pid] = peak
	return peak
}

// Sample converts an enumerated process into a snapshot row.
func Sample(info source.Info, peakMB float64, priority, classification string) types.ProcessSample {
	return types.ProcessSample{
		PID:            info.PID,
		Name:           info.Name,
		RSSMB:          info.RSSMB(),
		VMSMB:          info.VMSMB(),
		PeakRSSMB:      max(peakMB, info.RSSMB()),
		CPUPercent:     info.CPUPercent,
		Threads:        info.Threads,
		PriorityLabel:  priority,
		Classification: classification,
	}
}
