package report

import (
	"testing"

	"github.com/srodi/proctop/pkg/source"
)

func TestTopByRSSSortsAndTruncates(t *testing.T) {
	candidates := []source.Info{
		{PID: 1, RSSBytes: 10 << 20},
		{PID: 2, RSSBytes: 300 << 20},
		{PID: 3, RSSBytes: 50 << 20},
		{PID: 4, RSSBytes: 50 << 20},
		{PID: 5, RSSBytes: 1 << 20},
	}

	top := TopByRSS(candidates, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(top))
	}
	want := []int32{2, 3, 4}
	for i, pid := range want {
		if top[i].PID != pid {
			t.Fatalf("row %d: expected pid %d, got %d", i, pid, top[i].PID)
		}
	}
	if candidates[0].PID != 1 {
		t.Fatalf("input slice should not be reordered")
	}
}

func TestTopByRSSKeepsAllWhenUnderLimit(t *testing.T) {
	top := TopByRSS([]source.Info{{PID: 9, RSSBytes: 1}}, 20)
	if len(top) != 1 || top[0].PID != 9 {
		t.Fatalf("unexpected rows: %+v", top)
	}
	if got := TopByRSS(nil, 20); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestPeakTrackerIsMonotonic(t *testing.T) {
	tracker := NewPeakTracker()
	steps := []struct {
		rss  float64
		peak float64
	}{
		{100, 100},
		{80, 100},
		{120, 120},
		{0, 120},
	}
	for i, step := range steps {
		if got := tracker.Observe(7, step.rss); got != step.peak {
			t.Fatalf("step %d: expected peak %.0f, got %.0f", i, step.peak, got)
		}
	}
	if got := tracker.Observe(8, 5); got != 5 {
		t.Fatalf("peaks must be tracked per pid, got %.0f", got)
	}
}

func TestSampleKeepsPeakAboveRSS(t *testing.T) {
	info := source.Info{PID: 3, Name: "db", RSSBytes: 64 << 20, VMSBytes: 128 << 20, CPUPercent: 12.5, Threads: 4}
	row := Sample(info, 10, "Normal (0)", "")
	if row.RSSMB != 64 || row.VMSMB != 128 {
		t.Fatalf("unexpected memory conversion: %+v", row)
	}
	if row.PeakRSSMB < row.RSSMB {
		t.Fatalf("peak %.1f below rss %.1f", row.PeakRSSMB, row.RSSMB)
	}
	if row.CPUPercent != 12.5 || row.Threads != 4 || row.PriorityLabel != "Normal (0)" {
		t.Fatalf("fields not carried over: %+v", row)
	}
}

func TestPriorityLabel(t *testing.T) {
	cases := []struct {
		nice int
		want string
	}{
		{0, "Normal (0)"},
		{-10, "High (-10)"},
		{19, "Idle (19)"},
		{3, "nice 3"},
	}
	for _, tc := range cases {
		if got := PriorityLabel(tc.nice); got != tc.want {
			t.Fatalf("PriorityLabel(%d) = %q, want %q", tc.nice, got, tc.want)
		}
	}
}
