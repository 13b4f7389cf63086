package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/srodi/proctop/pkg/types"
)

func snapshotOf(pids ...int32) types.Snapshot {
	snap := types.Snapshot{Taken: time.Now(), Self: types.ProcessSample{PID: 1}}
	for _, pid := range pids {
		snap.Rows = append(snap.Rows, types.ProcessSample{PID: pid})
	}
	return snap
}

func TestReadWithoutDetail(t *testing.T) {
	s := New()
	if v := s.Read(); v.Detail != nil || len(v.Snapshot.Entries()) != 0 {
		t.Fatalf("fresh state should be empty, got %+v", v)
	}
	s.ReplaceSnapshot(snapshotOf(10, 11))
	v := s.Read()
	if len(v.Snapshot.Rows) != 2 || v.Detail != nil {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestStartDetailRejectsWhenActive(t *testing.T) {
	s := New()
	if !s.StartDetail(10) {
		t.Fatalf("first start should succeed")
	}
	if s.StartDetail(11) {
		t.Fatalf("second start should be rejected")
	}
	if pid, ok := s.DetailTarget(); !ok || pid != 10 {
		t.Fatalf("target changed by rejected start: %d %v", pid, ok)
	}
	s.SetDetailTarget(11)
	if pid, _ := s.DetailTarget(); pid != 11 {
		t.Fatalf("explicit set should replace target, got %d", pid)
	}
	if !s.ClearDetailTarget() || s.ClearDetailTarget() {
		t.Fatalf("clear should report whether a target was active")
	}
}

func TestDetailForStaleTargetIsDiscarded(t *testing.T) {
	s := New()
	s.SetDetailTarget(10)
	s.SetDetailTarget(20)
	if s.ReplaceDetail(10, &types.DetailSample{PID: 10}, nil) {
		t.Fatalf("detail for old target should be discarded")
	}
	v := s.Read()
	if v.Detail == nil || v.Detail.PID != 20 || !v.Detail.Pending() {
		t.Fatalf("expected pending detail for 20, got %+v", v.Detail)
	}
}

func TestPublishPairsSnapshotAndDetail(t *testing.T) {
	s := New()
	s.SetDetailTarget(10)
	gone := errors.New("gone")

	s.Publish(snapshotOf(10), &types.Detail{PID: 10, Sample: &types.DetailSample{PID: 10, Name: "db"}})
	v := s.Read()
	if v.Detail.Sample == nil || v.Detail.Sample.Name != "db" || v.Detail.Err != nil {
		t.Fatalf("unexpected detail: %+v", v.Detail)
	}

	s.Publish(snapshotOf(11), &types.Detail{PID: 10, Err: gone})
	v = s.Read()
	if v.Snapshot.Rows[0].PID != 11 {
		t.Fatalf("snapshot not replaced")
	}
	if v.Detail.Sample != nil || !errors.Is(v.Detail.Err, gone) {
		t.Fatalf("error marker should replace stale sample, got %+v", v.Detail)
	}
}

func TestReadReturnsCopies(t *testing.T) {
	s := New()
	s.SetDetailTarget(10)
	sample := &types.DetailSample{PID: 10, ThreadList: []types.ThreadTimes{{ID: 1}}}
	s.ReplaceDetail(10, sample, nil)

	v := s.Read()
	v.Detail.Sample.ThreadList[0].ID = 99
	v.Detail.Sample.Name = "mutated"
	again := s.Read()
	if again.Detail.Sample.ThreadList[0].ID != 1 || again.Detail.Sample.Name != "" {
		t.Fatalf("reader mutation leaked into shared state: %+v", again.Detail.Sample)
	}
}

func TestConcurrentPublishAndRead(t *testing.T) {
	s := New()
	s.SetDetailTarget(5)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int32(0); i < 500; i++ {
			s.Publish(snapshotOf(i, i), &types.Detail{PID: 5, Sample: &types.DetailSample{PID: 5, Threads: int(i)}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			v := s.Read()
			if len(v.Snapshot.Rows) == 2 && v.Snapshot.Rows[0].PID != v.Snapshot.Rows[1].PID {
				t.Errorf("observed half-updated snapshot: %+v", v.Snapshot.Rows)
				return
			}
		}
	}()
	wg.Wait()
}
