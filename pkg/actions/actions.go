// Package actions implements the operator commands that change a single
// process: priority, CPU affinity, termination and thread listing.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/report"
	"github.com/srodi/proctop/pkg/source"
	"github.com/srodi/proctop/pkg/types"
)

const defaultGrace = 500 * time.Millisecond

// Controller is the part of the process source that actions drive.
type Controller interface {
	Nice(ctx context.Context, pid int32) (int, error)
	SetPriority(ctx context.Context, pid int32, nice int) error
	Affinity(ctx context.Context, pid int32) ([]int, error)
	SetAffinity(ctx context.Context, pid int32, cores []int) error
	CPUCount(ctx context.Context) (int, error)
	Threads(ctx context.Context, pid int32) ([]types.ThreadTimes, error)
	Terminate(ctx context.Context, pid int32) error
	Kill(ctx context.Context, pid int32) error
	Alive(ctx context.Context, pid int32) (bool, error)
}

// Prompter reads one line from the operator.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string, timeout time.Duration, initial string) (string, lineedit.Outcome, error)
}

// Target identifies the process an action works on.
type Target struct {
	PID  int32
	Name string
}

func (t Target) String() string {
	if t.Name == "" {
		return fmt.Sprintf("PID %d", t.PID)
	}
	return fmt.Sprintf("PID %d (%s)", t.PID, t.Name)
}

// Actions runs process actions synchronously, printing outcomes to out.
// Errors returned by its methods come only from the prompt (cancellation,
// Ctrl-C, closed input); process failures are reported and swallowed.
type Actions struct {
	ctl    Controller
	prompt Prompter
	out    io.Writer
	grace  time.Duration
	sleep  func(time.Duration)
	log    *slog.Logger
}

// New builds Actions. grace is how long Terminate waits before escalating.
func New(ctl Controller, prompt Prompter, out io.Writer, grace time.Duration, log *slog.Logger) *Actions {
	if grace <= 0 {
		grace = defaultGrace
	}
	if log == nil {
		log = slog.Default()
	}
	return &Actions{
		ctl:    ctl,
		prompt: prompt,
		out:    out,
		grace:  grace,
		sleep:  time.Sleep,
		log:    log.With("component", "actions"),
	}
}

// ChangePriority offers the named priority classes or a raw nice value.
func (a *Actions) ChangePriority(ctx context.Context, t Target) error {
	fmt.Fprintf(a.out, "--- Change priority of %s ---\n", t)
	current, err := a.ctl.Nice(ctx, t.PID)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot read current priority: %s\n", Describe(err))
		if errors.Is(err, source.ErrNoSuchProcess) {
			return a.pause(ctx)
		}
	} else {
		fmt.Fprintf(a.out, "Current: %s\n", report.PriorityLabel(current))
	}

	for i, class := range report.PriorityClasses {
		fmt.Fprintf(a.out, "%d. %s (nice %d)\n", i+1, class.Name, class.Nice)
	}
	fmt.Fprintf(a.out, "n <value>. Raw nice value (%d to %d)\n", source.MinNice, source.MaxNice)
	fmt.Fprintln(a.out, "0. Cancel")

	line, _, err := a.prompt.ReadLine(ctx, "Choose a priority: ", 0, "")
	if err != nil {
		return err
	}
	nice, ok, err := ParsePriorityChoice(line)
	switch {
	case err != nil:
		fmt.Fprintf(a.out, "Invalid choice: %v\n", err)
	case !ok:
		fmt.Fprintln(a.out, "Cancelled.")
	default:
		if err := a.ctl.SetPriority(ctx, t.PID, nice); err != nil {
			a.log.Info("set priority failed", "pid", t.PID, "nice", nice, "error", err)
			fmt.Fprintf(a.out, "Failed to change priority: %s\n", Describe(err))
		} else {
			a.log.Info("priority changed", "pid", t.PID, "nice", nice)
			fmt.Fprintf(a.out, "Priority of %s set to %s.\n", t, report.PriorityLabel(nice))
		}
	}
	return a.pause(ctx)
}

// ParsePriorityChoice interprets the priority menu input. ok is false when the
// operator cancelled.
func ParsePriorityChoice(line string) (nice int, ok bool, err error) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" || line == "0" || line == "c" {
		return 0, false, nil
	}
	if raw, found := strings.CutPrefix(line, "n"); found {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, false, fmt.Errorf("nice value %q is not a number", strings.TrimSpace(raw))
		}
		if v < source.MinNice || v > source.MaxNice {
			return 0, false, fmt.Errorf("nice value must be between %d and %d", source.MinNice, source.MaxNice)
		}
		return v, true, nil
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(report.PriorityClasses) {
		return 0, false, fmt.Errorf("unknown option %q", line)
	}
	return report.PriorityClasses[idx-1].Nice, true, nil
}

// SetAffinity asks for a core list and applies it in one call.
func (a *Actions) SetAffinity(ctx context.Context, t Target) error {
	fmt.Fprintf(a.out, "--- Set CPU affinity of %s ---\n", t)
	cores, err := a.ctl.CPUCount(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot determine the number of CPUs: %v\n", err)
		return a.pause(ctx)
	}
	fmt.Fprintf(a.out, "System has %d CPUs (0 to %d).\n", cores, cores-1)
	if current, err := a.ctl.Affinity(ctx, t.PID); err != nil {
		fmt.Fprintf(a.out, "Current affinity unavailable: %s\n", Describe(err))
		if errors.Is(err, source.ErrNoSuchProcess) {
			return a.pause(ctx)
		}
	} else {
		fmt.Fprintf(a.out, "Current affinity: %v\n", current)
	}

	line, _, err := a.prompt.ReadLine(ctx, "New cores (e.g. 0,2 or 0-3, c to cancel): ", 0, "")
	if err != nil {
		return err
	}
	if v := strings.ToLower(strings.TrimSpace(line)); v == "c" || v == "" {
		fmt.Fprintln(a.out, "Cancelled.")
		return a.pause(ctx)
	}

	list, err := ParseCPUList(line, cores)
	if err != nil {
		fmt.Fprintf(a.out, "Rejected: %v\n", err)
		return a.pause(ctx)
	}
	if err := a.ctl.SetAffinity(ctx, t.PID, list); err != nil {
		a.log.Info("set affinity failed", "pid", t.PID, "cores", list, "error", err)
		fmt.Fprintf(a.out, "Failed to set affinity: %s\n", Describe(err))
	} else {
		a.log.Info("affinity changed", "pid", t.PID, "cores", list)
		fmt.Fprintf(a.out, "Affinity of %s set to %v.\n", t, list)
	}
	return a.pause(ctx)
}

// ListThreads prints every thread with its user and system CPU time.
func (a *Actions) ListThreads(ctx context.Context, t Target) error {
	fmt.Fprintf(a.out, "--- Threads of %s ---\n", t)
	threads, err := a.ctl.Threads(ctx, t.PID)
	switch {
	case err != nil:
		fmt.Fprintf(a.out, "Cannot list threads: %s\n", Describe(err))
	case len(threads) == 0:
		fmt.Fprintln(a.out, "No threads found or access to threads denied.")
	default:
		fmt.Fprintf(a.out, "%-15s %-15s %-15s\n", "Thread ID", "User time", "System time")
		fmt.Fprintln(a.out, strings.Repeat("-", 45))
		for _, th := range threads {
			fmt.Fprintf(a.out, "%-15d %-15.2f %-15.2f\n", th.ID, th.UserSeconds, th.SystemSeconds)
		}
	}
	return a.pause(ctx)
}

// Terminate confirms, sends a graceful signal, waits the grace period and
// escalates to a kill if the process is still alive. ended reports whether the
// process is gone afterwards.
func (a *Actions) Terminate(ctx context.Context, t Target) (ended bool, err error) {
	fmt.Fprintf(a.out, "--- Terminate %s ---\n", t)
	if alive, err := a.ctl.Alive(ctx, t.PID); err == nil && !alive {
		fmt.Fprintf(a.out, "%s is already gone.\n", t)
		return true, a.pause(ctx)
	}

	line, _, err := a.prompt.ReadLine(ctx, fmt.Sprintf("Really terminate %s? (y/N): ", t), 0, "")
	if err != nil {
		return false, err
	}
	if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled.")
		return false, a.pause(ctx)
	}

	ended = a.terminate(ctx, t)
	return ended, a.pause(ctx)
}

func (a *Actions) terminate(ctx context.Context, t Target) bool {
	if err := a.ctl.Terminate(ctx, t.PID); err != nil {
		if errors.Is(err, source.ErrNoSuchProcess) {
			fmt.Fprintf(a.out, "%s is already gone.\n", t)
			return true
		}
		a.log.Info("terminate failed", "pid", t.PID, "error", err)
		fmt.Fprintf(a.out, "Failed to terminate: %s\n", Describe(err))
		return false
	}
	a.log.Info("sent terminate", "pid", t.PID)

	a.sleep(a.grace)
	if !a.alive(ctx, t.PID) {
		fmt.Fprintf(a.out, "%s terminated.\n", t)
		return true
	}

	fmt.Fprintln(a.out, "Process did not exit after terminate, sending kill...")
	if err := a.ctl.Kill(ctx, t.PID); err != nil && !errors.Is(err, source.ErrNoSuchProcess) {
		a.log.Info("kill failed", "pid", t.PID, "error", err)
		fmt.Fprintf(a.out, "Failed to kill: %s\n", Describe(err))
		return false
	}
	a.log.Info("sent kill", "pid", t.PID)

	a.sleep(a.grace)
	if a.alive(ctx, t.PID) {
		fmt.Fprintf(a.out, "%s is still running.\n", t)
		return false
	}
	fmt.Fprintf(a.out, "%s killed.\n", t)
	return true
}

// alive counts a process whose state cannot be read as alive.
func (a *Actions) alive(ctx context.Context, pid int32) bool {
	alive, err := a.ctl.Alive(ctx, pid)
	return err != nil || alive
}

func (a *Actions) pause(ctx context.Context) error {
	_, _, err := a.prompt.ReadLine(ctx, "Press Enter to continue...", 0, "")
	return err
}

// Describe renders an action failure for the operator.
func Describe(err error) string {
	switch {
	case errors.Is(err, source.ErrNoSuchProcess):
		return "the process no longer exists"
	case errors.Is(err, source.ErrAccessDenied):
		return "access denied (elevated privileges may be required)"
	default:
		return err.Error()
	}
}
