//go:build !linux

package lineedit

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestStubTerminalBehavior(t *testing.T) {
	if _, err := OpenTerminal(os.Stdin); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}
	var term Terminal
	if _, err := term.EnableRaw(); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}
	if data, err := term.Poll(time.Millisecond); !errors.Is(err, errUnsupported) || data != nil {
		t.Fatalf("poll should fail with errUnsupported, got data=%v err=%v", data, err)
	}
}
