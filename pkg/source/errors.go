package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrNoSuchProcess reports that the pid no longer resolves to a live process.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrAccessDenied reports that the OS refused to expose or modify the process.
	ErrAccessDenied = errors.New("access denied")
)

// IsSoft reports whether err is one of the per-process conditions callers are
// expected to absorb: the process vanished or access was denied.
func IsSoft(err error) bool {
	return errors.Is(err, ErrNoSuchProcess) || errors.Is(err, ErrAccessDenied)
}

// classify maps raw gopsutil/syscall failures onto ErrNoSuchProcess and
// ErrAccessDenied while keeping the original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsSoft(err):
		return err
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, os.ErrProcessDone),
		errors.Is(err, syscall.ESRCH):
		return fmt.Errorf("%w: %w", ErrNoSuchProcess, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
