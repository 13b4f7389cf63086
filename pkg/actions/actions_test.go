package actions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/srodi/proctop/pkg/lineedit"
	"github.com/srodi/proctop/pkg/source"
	"github.com/srodi/proctop/pkg/types"
)

type fakeController struct {
	nice        int
	niceErr     error
	setNice     []int
	setNiceErr  error
	cores       int
	affinity    []int
	setAffinity [][]int
	threads     []types.ThreadTimes
	threadsErr  error
	terminated  int
	killed      int
	termErr     error
	aliveSeq    []bool
}

func (f *fakeController) Nice(context.Context, int32) (int, error) { return f.nice, f.niceErr }
func (f *fakeController) SetPriority(_ context.Context, _ int32, nice int) error {
	f.setNice = append(f.setNice, nice)
	return f.setNiceErr
}
func (f *fakeController) Affinity(context.Context, int32) ([]int, error) { return f.affinity, nil }
func (f *fakeController) SetAffinity(_ context.Context, _ int32, cores []int) error {
	f.setAffinity = append(f.setAffinity, cores)
	return nil
}
func (f *fakeController) CPUCount(context.Context) (int, error) { return f.cores, nil }
func (f *fakeController) Threads(context.Context, int32) ([]types.ThreadTimes, error) {
	return f.threads, f.threadsErr
}
func (f *fakeController) Terminate(context.Context, int32) error {
	f.terminated++
	return f.termErr
}
func (f *fakeController) Kill(context.Context, int32) error {
	f.killed++
	return nil
}
func (f *fakeController) Alive(context.Context, int32) (bool, error) {
	if len(f.aliveSeq) == 0 {
		return false, nil
	}
	v := f.aliveSeq[0]
	f.aliveSeq = f.aliveSeq[1:]
	return v, nil
}

type scriptedPrompt struct {
	answers []string
	prompts []string
}

func (p *scriptedPrompt) ReadLine(_ context.Context, prompt string, _ time.Duration, _ string) (string, lineedit.Outcome, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return "", lineedit.Completed, io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, lineedit.Completed, nil
}

func newTestActions(ctl *fakeController, answers ...string) (*Actions, *bytes.Buffer) {
	var out bytes.Buffer
	a := New(ctl, &scriptedPrompt{answers: answers}, &out, time.Millisecond, nil)
	a.sleep = func(time.Duration) {}
	return a, &out
}

var target = Target{PID: 77, Name: "worker"}

func TestChangePriorityClassAndRaw(t *testing.T) {
	ctl := &fakeController{}
	a, out := newTestActions(ctl, "2", "")
	if err := a.ChangePriority(context.Background(), target); err != nil {
		t.Fatalf("change priority: %v", err)
	}
	a, _ = newTestActions(ctl, "n 7", "")
	if err := a.ChangePriority(context.Background(), target); err != nil {
		t.Fatalf("change priority: %v", err)
	}
	if !reflect.DeepEqual(ctl.setNice, []int{-5, 7}) {
		t.Fatalf("unexpected nice values applied: %v", ctl.setNice)
	}
	if !strings.Contains(out.String(), "Current: Normal (0)") {
		t.Fatalf("current priority not shown: %q", out.String())
	}
}

func TestChangePriorityReportsDenied(t *testing.T) {
	ctl := &fakeController{setNiceErr: source.ErrAccessDenied}
	a, out := newTestActions(ctl, "1", "")
	if err := a.ChangePriority(context.Background(), target); err != nil {
		t.Fatalf("denied change should not be an error: %v", err)
	}
	if !strings.Contains(out.String(), "access denied") {
		t.Fatalf("expected access denied message, got %q", out.String())
	}
}

func TestChangePriorityGoneProcess(t *testing.T) {
	ctl := &fakeController{niceErr: source.ErrNoSuchProcess}
	a, out := newTestActions(ctl, "")
	if err := a.ChangePriority(context.Background(), target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ctl.setNice) != 0 || !strings.Contains(out.String(), "no longer exists") {
		t.Fatalf("expected early exit for gone process, out=%q", out.String())
	}
}

func TestParsePriorityChoice(t *testing.T) {
	cases := []struct {
		input string
		nice  int
		ok    bool
		err   bool
	}{
		{"3", 0, true, false},
		{"5", 19, true, false},
		{"n -20", -20, true, false},
		{"N 19", 19, true, false},
		{"n 20", 0, false, true},
		{"n x", 0, false, true},
		{"9", 0, false, true},
		{"0", 0, false, false},
		{"c", 0, false, false},
	}
	for _, tc := range cases {
		nice, ok, err := ParsePriorityChoice(tc.input)
		if nice != tc.nice || ok != tc.ok || (err != nil) != tc.err {
			t.Fatalf("%q: got (%d, %v, %v)", tc.input, nice, ok, err)
		}
	}
}

func TestSetAffinityAppliesWholeList(t *testing.T) {
	ctl := &fakeController{cores: 4, affinity: []int{0, 1, 2, 3}}
	a, _ := newTestActions(ctl, "0-3", "")
	if err := a.SetAffinity(context.Background(), target); err != nil {
		t.Fatalf("set affinity: %v", err)
	}
	if len(ctl.setAffinity) != 1 || !reflect.DeepEqual(ctl.setAffinity[0], []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected affinity calls: %v", ctl.setAffinity)
	}
}

func TestSetAffinityRejectsInvalidIndex(t *testing.T) {
	ctl := &fakeController{cores: 4}
	a, out := newTestActions(ctl, "0,1,9", "")
	if err := a.SetAffinity(context.Background(), target); err != nil {
		t.Fatalf("set affinity: %v", err)
	}
	if len(ctl.setAffinity) != 0 {
		t.Fatalf("invalid list must not be applied, got %v", ctl.setAffinity)
	}
	if !strings.Contains(out.String(), "Rejected") {
		t.Fatalf("expected rejection message, got %q", out.String())
	}
}

func TestListThreads(t *testing.T) {
	ctl := &fakeController{threads: []types.ThreadTimes{{ID: 101, UserSeconds: 1.25, SystemSeconds: 0.5}}}
	a, out := newTestActions(ctl, "")
	if err := a.ListThreads(context.Background(), target); err != nil {
		t.Fatalf("list threads: %v", err)
	}
	if !strings.Contains(out.String(), "101") || !strings.Contains(out.String(), "1.25") {
		t.Fatalf("thread row missing: %q", out.String())
	}

	ctl = &fakeController{}
	a, out = newTestActions(ctl, "")
	_ = a.ListThreads(context.Background(), target)
	if !strings.Contains(out.String(), "No threads") {
		t.Fatalf("expected none message, got %q", out.String())
	}
}

func TestTerminateAlreadyGone(t *testing.T) {
	ctl := &fakeController{aliveSeq: []bool{false}}
	a, out := newTestActions(ctl, "")
	ended, err := a.Terminate(context.Background(), target)
	if err != nil || !ended {
		t.Fatalf("expected ended without error, got %v %v", ended, err)
	}
	if ctl.terminated != 0 || !strings.Contains(out.String(), "already gone") {
		t.Fatalf("expected already gone report, out=%q", out.String())
	}
}

func TestTerminateVanishesBeforeSignal(t *testing.T) {
	ctl := &fakeController{aliveSeq: []bool{true}, termErr: source.ErrNoSuchProcess}
	a, out := newTestActions(ctl, "y", "")
	ended, err := a.Terminate(context.Background(), target)
	if err != nil || !ended || !strings.Contains(out.String(), "already gone") {
		t.Fatalf("got ended=%v err=%v out=%q", ended, err, out.String())
	}
}

func TestTerminateGraceful(t *testing.T) {
	ctl := &fakeController{aliveSeq: []bool{true, false}}
	a, _ := newTestActions(ctl, "yes", "")
	ended, err := a.Terminate(context.Background(), target)
	if err != nil || !ended {
		t.Fatalf("expected ended, got %v %v", ended, err)
	}
	if ctl.terminated != 1 || ctl.killed != 0 {
		t.Fatalf("expected terminate only, got term=%d kill=%d", ctl.terminated, ctl.killed)
	}
}

func TestTerminateEscalatesToKill(t *testing.T) {
	ctl := &fakeController{aliveSeq: []bool{true, true, false}}
	a, _ := newTestActions(ctl, "y", "")
	ended, err := a.Terminate(context.Background(), target)
	if err != nil || !ended {
		t.Fatalf("expected ended, got %v %v", ended, err)
	}
	if ctl.terminated != 1 || ctl.killed != 1 {
		t.Fatalf("expected escalation, got term=%d kill=%d", ctl.terminated, ctl.killed)
	}
}

func TestTerminateCancelled(t *testing.T) {
	ctl := &fakeController{aliveSeq: []bool{true}}
	a, _ := newTestActions(ctl, "n", "")
	ended, err := a.Terminate(context.Background(), target)
	if err != nil || ended || ctl.terminated != 0 {
		t.Fatalf("cancel should not signal: ended=%v err=%v term=%d", ended, err, ctl.terminated)
	}
}

func TestPromptErrorsPropagate(t *testing.T) {
	ctl := &fakeController{cores: 2}
	a, _ := newTestActions(ctl)
	if err := a.SetAffinity(context.Background(), target); !errors.Is(err, io.EOF) {
		t.Fatalf("expected prompt error, got %v", err)
	}
}
