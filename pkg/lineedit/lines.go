package lineedit

import (
	"bufio"
	"io"
	"time"
)

// LineSource adapts a line-buffered reader (a pipe, or a terminal that cannot
// be put in raw mode) to KeySource. A background goroutine reads whole lines;
// Poll waits on them with a timeout. Partial input is invisible until the
// line ends, so a timeout returns the caller's initial text unchanged.
type LineSource struct {
	lines chan []byte
	err   error
}

// NewLineSource starts reading r in the background.
func NewLineSource(r io.Reader) *LineSource {
	ls := &LineSource{lines: make(chan []byte)}
	go ls.scan(r)
	return ls
}

func (ls *LineSource) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := append([]byte(nil), sc.Bytes()...)
		ls.lines <- append(line, '\n')
	}
	ls.err = sc.Err()
	if ls.err == nil {
		ls.err = io.EOF
	}
	close(ls.lines)
}

// Poll returns the next complete line, including its newline.
func (ls *LineSource) Poll(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line, ok := <-ls.lines:
		if !ok {
			return nil, ls.err
		}
		return line, nil
	case <-timer.C:
		return nil, nil
	}
}
