// Package sampler periodically reads the process table and publishes ranked
// snapshots into the shared state.
package sampler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/srodi/proctop/pkg/report"
	"github.com/srodi/proctop/pkg/source"
	"github.com/srodi/proctop/pkg/state"
	"github.com/srodi/proctop/pkg/types"
)

const (
	defaultInterval    = 2 * time.Second
	defaultDetailPrime = 100 * time.Millisecond
	skipLogInterval    = 30 * time.Second
)

// Source is the part of the process source the sampler reads from.
type Source interface {
	Pids(ctx context.Context) ([]int32, error)
	Inspect(ctx context.Context, pid int32) (source.Info, error)
	Nice(ctx context.Context, pid int32) (int, error)
	Detail(ctx context.Context, pid int32, prime time.Duration) (types.DetailSample, error)
}

// Options tunes a Sampler. Zero values fall back to defaults.
type Options struct {
	Interval    time.Duration
	TopK        int
	DetailPrime time.Duration
	SelfPID     int32
	SelfName    string
	Classifier  report.Classifier
	Logger      *slog.Logger
}

// Sampler owns every write of snapshots and detail data to the shared state.
// Its peak map is private, so only values copied into snapshots reach the
// presenter.
type Sampler struct {
	src   Source
	state *state.Shared
	opts  Options
	peaks *report.PeakTracker
	log   *slog.Logger
	noisy rate.Sometimes
}

// New builds a Sampler publishing into shared.
func New(src Source, shared *state.Shared, opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.TopK <= 0 || opts.TopK > types.DefaultTopK {
		opts.TopK = types.DefaultTopK
	}
	if opts.DetailPrime <= 0 {
		opts.DetailPrime = defaultDetailPrime
	}
	if opts.SelfName == "" {
		opts.SelfName = "proctop"
	}
	if opts.Classifier == nil {
		opts.Classifier = report.NewRoleClassifier(nil)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Sampler{
		src:   src,
		state: shared,
		opts:  opts,
		peaks: report.NewPeakTracker(),
		log:   log.With("component", "sampler"),
		noisy: rate.Sometimes{First: 3, Interval: skipLogInterval},
	}
}

// Run samples until ctx is cancelled. It never returns an error for
// per-cycle failures; those are logged and the next cycle tries again.
func (s *Sampler) Run(ctx context.Context) error {
	s.log.Info("sampler started", "interval", s.opts.Interval, "topk", s.opts.TopK)
	s.prime(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sampler stopped")
			return nil
		case <-timer.C:
		}
		if err := s.Cycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("sampling cycle failed", "error", err)
		}
		timer.Reset(s.opts.Interval)
	}
}

// prime touches every process once so the first published CPU percentages
// are rates over a real window instead of zeros.
func (s *Sampler) prime(ctx context.Context) {
	pids, err := s.src.Pids(ctx)
	if err != nil {
		return
	}
	for _, pid := range pids {
		_, _ = s.src.Inspect(ctx, pid)
	}
}

// Cycle runs one sampling pass and publishes the result. An error means the
// process list itself could not be read and nothing was published.
func (s *Sampler) Cycle(ctx context.Context) error {
	pids, err := s.src.Pids(ctx)
	if err != nil {
		return err
	}

	candidates := make([]source.Info, 0, len(pids))
	skipped := 0
	for _, pid := range pids {
		if pid == s.opts.SelfPID {
			continue
		}
		info, err := s.src.Inspect(ctx, pid)
		if err != nil {
			skipped++
			s.noisy.Do(func() {
				s.log.Debug("skipping process", "pid", pid, "soft", source.IsSoft(err), "error", err)
			})
			continue
		}
		candidates = append(candidates, info)
	}

	pop := report.NewPopulation(toCandidates(candidates))
	top := report.TopByRSS(candidates, s.opts.TopK)
	rows := make([]types.ProcessSample, 0, len(top))
	for _, info := range top {
		rows = append(rows, s.sample(ctx, info, s.classify(info, pop)))
	}
	snap := types.Snapshot{Rows: rows, Self: s.self(ctx), Taken: time.Now()}

	var detail *types.Detail
	if pid, ok := s.state.DetailTarget(); ok {
		d := types.Detail{PID: pid}
		if ds, err := s.src.Detail(ctx, pid, s.opts.DetailPrime); err != nil {
			d.Err = err
		} else {
			d.Sample = &ds
		}
		detail = &d
	}

	s.state.Publish(snap, detail)
	s.log.Debug("snapshot published", "rows", len(rows), "candidates", len(candidates), "skipped", skipped)
	return nil
}

func (s *Sampler) sample(ctx context.Context, info source.Info, classification string) types.ProcessSample {
	priority := report.NotAvailable
	if nice, err := s.src.Nice(ctx, info.PID); err == nil {
		priority = report.PriorityLabel(nice)
	}
	peak := s.peaks.Observe(info.PID, info.RSSMB())
	return report.Sample(info, peak, priority, classification)
}

func (s *Sampler) self(ctx context.Context) types.ProcessSample {
	info, err := s.src.Inspect(ctx, s.opts.SelfPID)
	if err != nil {
		s.log.Warn("reading own process failed", "pid", s.opts.SelfPID, "error", err)
		info = source.Info{PID: s.opts.SelfPID, Name: s.opts.SelfName, Threads: types.UnknownThreads}
	}
	return s.sample(ctx, info, types.SelfClassification)
}

// classify runs the pluggable classifier; a misbehaving classifier costs the
// label, never the cycle.
func (s *Sampler) classify(info source.Info, pop *report.Population) (label string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Debug("classifier panicked", "pid", info.PID, "panic", r)
			label = ""
		}
	}()
	return s.opts.Classifier.Classify(toCandidate(info), pop)
}

func toCandidate(info source.Info) report.Candidate {
	return report.Candidate{PID: info.PID, PPID: info.PPID, Name: info.Name, Cmdline: info.Cmdline}
}

func toCandidates(infos []source.Info) []report.Candidate {
	out := make([]report.Candidate, len(infos))
	for i, info := range infos {
		out[i] = toCandidate(info)
	}
	return out
}
