//go:build linux

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisableInputEchoRejectsNonTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	undo, err := disableInputEcho(int(f.Fd()))
	if err == nil || undo != nil {
		t.Fatalf("expected termios error for a regular file, got undo=%v err=%v", undo != nil, err)
	}
}
