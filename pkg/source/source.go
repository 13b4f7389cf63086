package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/srodi/proctop/pkg/types"
)

const bytesPerMB = 1024 * 1024

// Info is what the bulk enumeration pass reads for one process.
type Info struct {
	PID        int32
	PPID       int32
	Name       string
	RSSBytes   uint64
	VMSBytes   uint64
	CPUPercent float64
	Threads    int
	Cmdline    []string
}

// RSSMB returns the resident set size in megabytes.
func (i Info) RSSMB() float64 { return float64(i.RSSBytes) / bytesPerMB }

// VMSMB returns the virtual memory size in megabytes.
func (i Info) VMSMB() float64 { return float64(i.VMSBytes) / bytesPerMB }

// Source reads live process state through gopsutil. It keeps one handle per
// pid between cycles so CPU percentages are computed against the previous
// observation of the same pid.
type Source struct {
	mu      sync.Mutex
	handles map[int32]*process.Process
}

// New returns an empty Source.
func New() *Source {
	return &Source{handles: make(map[int32]*process.Process)}
}

// Pids lists live process ids and forgets cached handles for pids that are gone.
func (s *Source) Pids(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pids: %w", err)
	}

	live := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		live[pid] = struct{}{}
	}
	s.mu.Lock()
	for pid := range s.handles {
		if _, ok := live[pid]; !ok {
			delete(s.handles, pid)
		}
	}
	s.mu.Unlock()

	return pids, nil
}

// sameProcess reports whether a cached handle still refers to the process it
// was opened for. gopsutil compares create times, so a reused pid fails.
var sameProcess = func(ctx context.Context, p *process.Process) (bool, error) {
	return p.IsRunningWithContext(ctx)
}

// handle returns the cached handle for pid, replacing it when the pid now
// belongs to a different process. Cached name and CPU times die with it.
func (s *Source) handle(ctx context.Context, pid int32) (*process.Process, error) {
	s.mu.Lock()
	p, ok := s.handles[pid]
	s.mu.Unlock()
	if ok {
		if same, err := sameProcess(ctx, p); err == nil && same {
			return p, nil
		}
		s.mu.Lock()
		delete(s.handles, pid)
		s.mu.Unlock()
	}

	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, classify(err)
	}
	// Pin the create time so a later reuse check has something to compare.
	_, _ = p.CreateTimeWithContext(ctx)
	s.mu.Lock()
	s.handles[pid] = p
	s.mu.Unlock()
	return p, nil
}

// Inspect reads the bulk-pass fields for one pid. The CPU percentage is the
// rate since the previous Inspect of the same pid, zero on the first call.
func (s *Source) Inspect(ctx context.Context, pid int32) (Info, error) {
	p, err := s.handle(ctx, pid)
	if err != nil {
		return Info{}, err
	}

	info := Info{PID: pid, Threads: types.UnknownThreads}
	if info.Name, err = p.NameWithContext(ctx); err != nil {
		return Info{}, fmt.Errorf("pid %d name: %w", pid, classify(err))
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("pid %d memory: %w", pid, classify(err))
	}
	info.RSSBytes, info.VMSBytes = mem.RSS, mem.VMS

	if info.CPUPercent, err = p.PercentWithContext(ctx, 0); err != nil {
		return Info{}, fmt.Errorf("pid %d cpu: %w", pid, classify(err))
	}
	info.CPUPercent = max(info.CPUPercent, 0)
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		info.Threads = int(n)
	}
	if ppid, err := p.PpidWithContext(ctx); err == nil {
		info.PPID = ppid
	}
	if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
		info.Cmdline = args
	}
	return info, nil
}

// Nice returns the process niceness.
func (s *Source) Nice(ctx context.Context, pid int32) (int, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, classify(err)
	}
	n, err := p.NiceWithContext(ctx)
	if err != nil {
		return 0, classify(err)
	}
	return int(n), nil
}

// Detail resolves pid afresh and builds a detail sample. The CPU percentage is
// measured across prime, so Detail blocks for at least that long.
func (s *Source) Detail(ctx context.Context, pid int32, prime time.Duration) (types.DetailSample, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return types.DetailSample{}, classify(err)
	}

	sample := types.DetailSample{PID: pid, Threads: types.UnknownThreads, Status: types.StatusUnknown}
	if sample.CPUPercent, err = p.PercentWithContext(ctx, prime); err != nil {
		return types.DetailSample{}, classify(err)
	}
	if sample.Name, err = p.NameWithContext(ctx); err != nil {
		return types.DetailSample{}, classify(err)
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return types.DetailSample{}, classify(err)
	}
	sample.RSSMB = float64(mem.RSS) / bytesPerMB
	sample.VMSMB = float64(mem.VMS) / bytesPerMB

	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		sample.Threads = int(n)
	}
	if st, err := p.StatusWithContext(ctx); err == nil && len(st) > 0 {
		sample.Status = mapStatus(st[0])
	}
	if threads, err := s.threadsOf(ctx, p); err == nil {
		sample.ThreadList = threads
	}
	return sample, nil
}

// Threads lists per-thread CPU times ordered by thread id.
func (s *Source) Threads(ctx context.Context, pid int32) ([]types.ThreadTimes, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, classify(err)
	}
	return s.threadsOf(ctx, p)
}

func (s *Source) threadsOf(ctx context.Context, p *process.Process) ([]types.ThreadTimes, error) {
	raw, err := p.ThreadsWithContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return threadTimes(raw), nil
}

func threadTimes(raw map[int32]*cpu.TimesStat) []types.ThreadTimes {
	out := make([]types.ThreadTimes, 0, len(raw))
	for id, t := range raw {
		if t == nil {
			continue
		}
		out = append(out, types.ThreadTimes{ID: id, UserSeconds: t.User, SystemSeconds: t.System})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Affinity returns the cores the process may run on.
func (s *Source) Affinity(ctx context.Context, pid int32) ([]int, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, classify(err)
	}
	raw, err := p.CPUAffinityWithContext(ctx)
	if err != nil {
		return nil, classify(err)
	}
	cores := make([]int, len(raw))
	for i, c := range raw {
		cores[i] = int(c)
	}
	return cores, nil
}

// CPUCount returns the number of logical cores.
func (s *Source) CPUCount(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("counting cpus: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("counting cpus: got %d", n)
	}
	return n, nil
}

// Exists reports whether pid currently resolves to a process.
func (s *Source) Exists(ctx context.Context, pid int32) (bool, error) {
	ok, err := process.PidExistsWithContext(ctx, pid)
	if err != nil {
		return false, classify(err)
	}
	return ok, nil
}

// Alive reports whether pid still exists and has not become a zombie.
func (s *Source) Alive(ctx context.Context, pid int32) (bool, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if err = classify(err); errors.Is(err, ErrNoSuchProcess) {
			return false, nil
		}
		return false, err
	}
	st, err := p.StatusWithContext(ctx)
	if err != nil {
		if errors.Is(classify(err), ErrNoSuchProcess) {
			return false, nil
		}
		return true, nil
	}
	return len(st) == 0 || st[0] != process.Zombie, nil
}

// Terminate sends a graceful termination signal.
func (s *Source) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return classify(err)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("terminating pid %d: %w", pid, classify(err))
	}
	return nil
}

// Kill forcefully ends the process.
func (s *Source) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return classify(err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("killing pid %d: %w", pid, classify(err))
	}
	return nil
}

func mapStatus(raw string) types.Status {
	switch raw {
	case process.Running:
		return types.StatusRunning
	case process.Sleep, process.Idle, process.Wait:
		return types.StatusSleeping
	case process.Stop:
		return types.StatusStopped
	case process.Zombie:
		return types.StatusZombie
	default:
		return types.StatusUnknown
	}
}
