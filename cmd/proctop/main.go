package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/srodi/proctop/pkg/actions"
	"github.com/srodi/proctop/pkg/config"
	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/presenter"
	"github.com/srodi/proctop/pkg/report"
	"github.com/srodi/proctop/pkg/sampler"
	"github.com/srodi/proctop/pkg/source"
	"github.com/srodi/proctop/pkg/state"
	"github.com/srodi/proctop/pkg/ui"
)

const (
	bannerPause = 2 * time.Second
	minWidth    = 110
)

// parseConfig layers command-line flags over the optional config file. Only
// flags that were actually set override file values.
func parseConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("proctop", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	interval := fs.Duration("interval", config.DefaultInterval, "sampling interval (e.g. 2s, 500ms)")
	topK := fs.Int("topk", 0, "number of processes ranked by resident memory (default and maximum 20)")
	refresh := fs.Duration("refresh", config.DefaultRefreshTimeout, "idle time before the process list is redrawn")
	grace := fs.Duration("terminate-grace", config.DefaultTerminateGrace, "wait before escalating terminate to kill")
	logFile := fs.String("log-file", "", "log file path (default $TMPDIR/proctop.log)")
	logLevel := fs.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Interval = *interval
		case "topk":
			cfg.TopK = *topK
		case "refresh":
			cfg.RefreshTimeout = *refresh
		case "terminate-grace":
			cfg.TerminateGrace = *grace
		case "log-file":
			cfg.LogFile = *logFile
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	return cfg.Normalize(), nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger, logCloser, err := openLogger(cfg)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runErr := run(ctx, cfg, logger)
	stop()

	if runErr != nil {
		logger.Error("proctop stopped with error", "error", runErr)
	} else {
		logger.Info("proctop stopped")
	}
	if err := errors.Join(runErr, logCloser.Close()); err != nil {
		fmt.Fprintf(os.Stderr, "proctop: %v\n", err)
		os.Exit(1)
	}
}

func openLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := tint.NewHandler(f, &tint.Options{Level: level, TimeFormat: time.DateTime, NoColor: true})
	return slog.New(h), f, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	fmt.Print(ui.Banner())
	fmt.Println("Starting the process monitor...")
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(bannerPause):
	}

	input := openInput(logger)
	_, rawInput := input.(*lineedit.Terminal)
	reader := lineedit.NewReader(input, os.Stdout, cfg.PollInterval)
	src := source.New()
	shared := state.New()

	smp := sampler.New(src, shared, sampler.Options{
		Interval:   cfg.Interval,
		TopK:       cfg.TopK,
		SelfPID:    int32(os.Getpid()),
		SelfName:   filepath.Base(os.Args[0]),
		Classifier: report.NewRoleClassifier(cfg.Classifier.Applications),
		Logger:     logger,
	})
	acts := actions.New(src, reader, os.Stdout, cfg.TerminateGrace, logger)
	pres := presenter.New(shared, reader, acts, os.Stdout, presenter.Options{
		RefreshTimeout: cfg.RefreshTimeout,
		DetailRedraw:   cfg.DetailRedraw,
		IdleRedraw:     cfg.IdleRedraw,
		MessagePause:   cfg.MessagePause,
		Interval:       cfg.Interval,
		Logger:         logger,
	})

	cleanupTerminal := enableSingleView(logger, rawInput)
	defer cleanupTerminal()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return smp.Run(gctx)
	})
	g.Go(func() error {
		// Quitting from the prompt stops the sampler too.
		defer cancel()
		return pres.Run(gctx)
	})
	logger.Info("proctop started", "pid", os.Getpid(), "interval", cfg.Interval, "topk", cfg.TopK)
	return g.Wait()
}

// openInput prefers raw keystrokes from the tty and falls back to whole lines
// when stdin is a pipe or raw mode is unavailable.
func openInput(logger *slog.Logger) lineedit.KeySource {
	t, err := lineedit.OpenTerminal(os.Stdin)
	if err == nil {
		return t
	}
	logger.Info("raw keystrokes unavailable, reading whole lines", "error", err)
	return lineedit.NewLineSource(os.Stdin)
}

// enableSingleView switches to the alternate screen. When input comes from the
// raw-capable tty, stdin echo is also turned off between prompts.
func enableSingleView(logger *slog.Logger, suppressEcho bool) func() {
	stdoutFD := int(os.Stdout.Fd())
	if !term.IsTerminal(stdoutFD) {
		return func() {}
	}
	if width, _, err := term.GetSize(stdoutFD); err == nil && width < minWidth {
		logger.Warn("terminal narrower than the process table", "width", width, "want", minWidth)
	}

	fmt.Print("\033[?1049h") // switch to alternate buffer

	var restore []func()
	if suppressEcho {
		if undoEcho, err := disableInputEcho(int(os.Stdin.Fd())); err != nil {
			logger.Warn("unable to suppress stdin echo", "error", err)
		} else if undoEcho != nil {
			restore = append(restore, undoEcho)
		}
	}

	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
		fmt.Print("\033[?1049l") // restore main buffer
	}
}
