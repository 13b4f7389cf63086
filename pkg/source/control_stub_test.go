//go:build !linux

package source

import (
	"context"
	"errors"
	"testing"
)

func TestStubControlBehavior(t *testing.T) {
	s := New()
	if err := s.SetPriority(context.Background(), 1, 0); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}
	if err := s.SetAffinity(context.Background(), 1, []int{0}); !errors.Is(err, errUnsupported) {
		t.Fatalf("expected errUnsupported, got %v", err)
	}
}
