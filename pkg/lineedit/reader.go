// Package lineedit reads one command line at a time from a keystroke source,
// with cursor editing and a timeout that hands back the partial line.
package lineedit

import (
	"context"
	"errors"
	"io"
	"time"
)

// MaxPollInterval caps how long the reader waits for a key before checking
// its deadline again.
const MaxPollInterval = 50 * time.Millisecond

// ErrInterrupted is returned when the operator presses Ctrl-C at a prompt.
var ErrInterrupted = errors.New("interrupted")

// Outcome tells how ReadLine ended.
type Outcome int

const (
	// Completed means enter was pressed.
	Completed Outcome = iota
	// TimedOut means the timeout elapsed; the text is the partial line.
	TimedOut
)

func (o Outcome) String() string {
	if o == Completed {
		return "completed"
	}
	return "timed out"
}

// KeySource yields raw input bytes. Poll waits at most timeout and returns
// nil data when nothing arrived.
type KeySource interface {
	Poll(timeout time.Duration) ([]byte, error)
}

// RawModer is implemented by sources that must switch the terminal into raw
// mode while a line is being read.
type RawModer interface {
	EnableRaw() (restore func() error, err error)
}

// Reader is a single-line editor. It is not safe for concurrent use.
type Reader struct {
	src   KeySource
	out   io.Writer
	poll  time.Duration
	now   func() time.Time
	dec   Decoder
	ahead []Key
}

// NewReader builds a Reader echoing to out. poll is clamped to
// (0, MaxPollInterval].
func NewReader(src KeySource, out io.Writer, poll time.Duration) *Reader {
	if poll <= 0 || poll > MaxPollInterval {
		poll = MaxPollInterval
	}
	return &Reader{src: src, out: out, poll: poll, now: time.Now}
}

// ReadLine shows prompt followed by initial and edits until enter is pressed
// or timeout elapses. A timeout <= 0 waits indefinitely. On TimedOut the
// returned text is the buffer so far; pass it back as initial to resume.
// Keys typed after enter are kept for the next call.
func (r *Reader) ReadLine(ctx context.Context, prompt string, timeout time.Duration, initial string) (string, Outcome, error) {
	if raw, ok := r.src.(RawModer); ok {
		restore, err := raw.EnableRaw()
		if err != nil {
			return initial, TimedOut, err
		}
		defer restore()
	}

	buf := NewBuffer(initial)
	r.write(buf.Render(prompt))

	if text, done, err := r.consume(buf, prompt, r.takeAhead()); done {
		return text, Completed, err
	}

	start := r.now()
	for {
		if err := ctx.Err(); err != nil {
			return buf.String(), TimedOut, err
		}
		wait := r.poll
		if timeout > 0 {
			remaining := timeout - r.now().Sub(start)
			if remaining <= 0 {
				r.write("\r\n")
				return buf.String(), TimedOut, nil
			}
			wait = min(wait, remaining)
		}

		data, err := r.src.Poll(wait)
		if err != nil {
			r.write("\r\n")
			return buf.String(), TimedOut, err
		}
		if len(data) == 0 {
			r.dec.Flush()
			continue
		}
		if text, done, err := r.consume(buf, prompt, r.dec.Feed(data)); done {
			return text, Completed, err
		}
	}
}

// consume applies keys to buf. done is set when enter or Ctrl-C ends the line;
// any keys after that are saved for the next ReadLine.
func (r *Reader) consume(buf *Buffer, prompt string, keys []Key) (string, bool, error) {
	changed := false
	for i, k := range keys {
		switch k.Kind {
		case KeyEnter, KeyInterrupt:
			if changed {
				r.write(buf.Render(prompt))
			}
			r.write("\r\n")
			r.ahead = append(r.ahead, keys[i+1:]...)
			if k.Kind == KeyInterrupt {
				return buf.String(), true, ErrInterrupted
			}
			return buf.String(), true, nil
		default:
			if buf.Apply(k) {
				changed = true
			}
		}
	}
	if changed {
		r.write(buf.Render(prompt))
	}
	return "", false, nil
}

func (r *Reader) takeAhead() []Key {
	keys := r.ahead
	r.ahead = nil
	return keys
}

func (r *Reader) write(s string) {
	_, _ = io.WriteString(r.out, s)
}
