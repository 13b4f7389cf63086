// Package presenter runs the interactive command loop: it renders the shared
// snapshot, reads commands with an auto-refresh timeout and dispatches process
// actions synchronously.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/srodi/proctop/pkg/actions"
	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/state"
	"github.com/srodi/proctop/pkg/ui"
)

const (
	defaultRefreshTimeout = 5 * time.Second
	defaultDetailRedraw   = 300 * time.Millisecond
	defaultIdleRedraw     = 500 * time.Millisecond
	defaultMessagePause   = time.Second

	mainPrompt = "> "
	menuPrompt = "Choose an action: "
)

// Prompter reads one line from the operator.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string, timeout time.Duration, initial string) (string, lineedit.Outcome, error)
}

// Actions are the process operations offered by the action submenu.
type Actions interface {
	ChangePriority(ctx context.Context, t actions.Target) error
	SetAffinity(ctx context.Context, t actions.Target) error
	ListThreads(ctx context.Context, t actions.Target) error
	Terminate(ctx context.Context, t actions.Target) (bool, error)
}

// Options tunes the loop timing. Zero values take the defaults.
type Options struct {
	// RefreshTimeout bounds the main prompt before the list is redrawn.
	RefreshTimeout time.Duration
	// DetailRedraw and IdleRedraw are the pauses between redraws with and
	// without a detail target.
	DetailRedraw time.Duration
	IdleRedraw   time.Duration
	// MessagePause keeps a feedback message on screen before the next redraw.
	MessagePause time.Duration
	// Interval is the sampling interval shown in the header.
	Interval time.Duration
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = defaultRefreshTimeout
	}
	if o.DetailRedraw <= 0 {
		o.DetailRedraw = defaultDetailRedraw
	}
	if o.IdleRedraw <= 0 {
		o.IdleRedraw = defaultIdleRedraw
	}
	if o.MessagePause <= 0 {
		o.MessagePause = defaultMessagePause
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type mode int

const (
	modeMainList mode = iota
	modeActionMenu
	modeStopped
)

func (m mode) String() string {
	switch m {
	case modeMainList:
		return "main list"
	case modeActionMenu:
		return "action menu"
	default:
		return "stopped"
	}
}

// Presenter owns the terminal output and every process mutation. It is not
// safe for concurrent use; run exactly one.
type Presenter struct {
	shared *state.Shared
	prompt Prompter
	acts   Actions
	out    io.Writer
	opts   Options
	log    *slog.Logger
	sleep  func(time.Duration)

	mode    mode
	target  actions.Target
	pending string
}

// New builds a Presenter in the main list state.
func New(shared *state.Shared, prompt Prompter, acts Actions, out io.Writer, opts Options) *Presenter {
	opts = opts.withDefaults()
	return &Presenter{
		shared: shared,
		prompt: prompt,
		acts:   acts,
		out:    out,
		opts:   opts,
		log:    opts.Logger.With("component", "presenter"),
		sleep:  time.Sleep,
	}
}

// Run loops until the operator quits, input ends or ctx is cancelled; all of
// those return nil. Other input failures are returned.
func (p *Presenter) Run(ctx context.Context) error {
	for p.mode != modeStopped {
		if ctx.Err() != nil {
			break
		}
		if err := p.iterate(ctx); err != nil {
			if isStop(err) {
				p.log.Info("input ended", "reason", err)
				break
			}
			return fmt.Errorf("command loop: %w", err)
		}
	}
	p.mode = modeStopped
	p.log.Info("presenter stopped")
	return nil
}

func isStop(err error) bool {
	return errors.Is(err, lineedit.ErrInterrupted) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// iterate runs one step of the state machine. A panic inside the step is
// reported and the loop resumes from the main list.
func (p *Presenter) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("command loop panic", "panic", r, "mode", p.mode.String(), "pid", p.target.PID)
			p.mode = modeMainList
			p.pending = ""
			fmt.Fprintf(p.out, "\nAn error occurred in the interface: %v\n", r)
			p.sleep(2 * p.opts.MessagePause)
			err = nil
		}
	}()

	switch p.mode {
	case modeMainList:
		return p.mainList(ctx)
	case modeActionMenu:
		return p.actionMenu(ctx)
	}
	return nil
}

func (p *Presenter) mainList(ctx context.Context) error {
	view := p.shared.Read()
	if err := ui.Render(p.out, ui.Frame{Snapshot: view.Snapshot, Detail: view.Detail, Interval: p.opts.Interval}); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if view.Detail != nil && view.Detail.Err != nil {
		p.log.Info("detail target lost", "pid", view.Detail.PID, "error", view.Detail.Err)
		p.shared.ClearDetailTarget()
	}

	line, outcome, err := p.prompt.ReadLine(ctx, mainPrompt, p.opts.RefreshTimeout, p.pending)
	if err != nil {
		return err
	}
	if outcome == lineedit.TimedOut {
		p.pending = line
	} else {
		p.pending = ""
		p.dispatch(ParseCommand(line), view)
	}

	if p.mode == modeMainList {
		p.redrawPause()
	}
	return nil
}

func (p *Presenter) dispatch(cmd Command, view state.View) {
	switch cmd.Kind {
	case CmdRefresh:
	case CmdQuit:
		p.mode = modeStopped
	case CmdSelect:
		row, ok := view.Snapshot.Row(cmd.Row)
		if !ok {
			p.message("Invalid process number.")
			return
		}
		p.target = actions.Target{PID: row.PID, Name: row.Name}
		p.mode = modeActionMenu
	case CmdMonitor:
		row, ok := view.Snapshot.Row(cmd.Row)
		if !ok {
			p.message("Invalid row for detailed monitoring.")
			return
		}
		if !p.shared.StartDetail(row.PID) {
			p.message("Detailed monitoring is already active; press p to stop it first.")
			return
		}
		p.log.Info("detail monitoring started", "pid", row.PID, "name", row.Name)
	case CmdStopMonitor:
		if !p.shared.ClearDetailTarget() {
			p.message("Command not recognized.")
			return
		}
		p.log.Info("detail monitoring stopped")
	default:
		p.message("Command not recognized.")
	}
}

func (p *Presenter) actionMenu(ctx context.Context) error {
	t := p.target
	if err := ui.ActionMenu(p.out, t.PID, t.Name); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	line, _, err := p.prompt.ReadLine(ctx, menuPrompt, 0, "")
	if err != nil {
		return err
	}

	switch ParseMenuChoice(line) {
	case MenuPriority:
		return p.acts.ChangePriority(ctx, t)
	case MenuAffinity:
		return p.acts.SetAffinity(ctx, t)
	case MenuThreads:
		return p.acts.ListThreads(ctx, t)
	case MenuTerminate:
		ended, err := p.acts.Terminate(ctx, t)
		if ended {
			p.mode = modeMainList
		}
		return err
	case MenuMonitor:
		p.shared.SetDetailTarget(t.PID)
		p.log.Info("detail monitoring started", "pid", t.PID, "name", t.Name)
		p.message(fmt.Sprintf("Detailed monitoring started for PID %d. Returning to the process list.", t.PID))
		p.mode = modeMainList
	case MenuBack:
		p.mode = modeMainList
	default:
		p.message("Invalid option.")
	}
	return nil
}

func (p *Presenter) message(text string) {
	fmt.Fprintf(p.out, "\n%s\n", text)
	p.sleep(p.opts.MessagePause)
}

func (p *Presenter) redrawPause() {
	if _, active := p.shared.DetailTarget(); active {
		p.sleep(p.opts.DetailRedraw)
		return
	}
	p.sleep(p.opts.IdleRedraw)
}
