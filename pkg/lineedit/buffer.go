package lineedit

import (
	"fmt"
	"strings"
)

// Buffer is the text being edited plus a cursor offset in runes.
type Buffer struct {
	runes  []rune
	cursor int
}

// NewBuffer starts a buffer holding s with the cursor at the end.
func NewBuffer(s string) *Buffer {
	r := []rune(s)
	return &Buffer{runes: r, cursor: len(r)}
}

func (b *Buffer) String() string { return string(b.runes) }

// Cursor returns the cursor offset in runes.
func (b *Buffer) Cursor() int { return b.cursor }

// Apply edits the buffer for key and reports whether anything changed.
func (b *Buffer) Apply(k Key) bool {
	switch k.Kind {
	case KeyRune:
		b.runes = append(b.runes, 0)
		copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
		b.runes[b.cursor] = k.Rune
		b.cursor++
		return true
	case KeyBackspace:
		if b.cursor == 0 {
			return false
		}
		b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
		b.cursor--
		return true
	case KeyDelete:
		if b.cursor >= len(b.runes) {
			return false
		}
		b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
		return true
	case KeyLeft:
		return b.moveTo(b.cursor - 1)
	case KeyRight:
		return b.moveTo(b.cursor + 1)
	case KeyHome:
		return b.moveTo(0)
	case KeyEnd:
		return b.moveTo(len(b.runes))
	case KeyClearLine:
		if len(b.runes) == 0 {
			return false
		}
		b.runes, b.cursor = b.runes[:0], 0
		return true
	}
	return false
}

func (b *Buffer) moveTo(pos int) bool {
	pos = max(0, min(pos, len(b.runes)))
	if pos == b.cursor {
		return false
	}
	b.cursor = pos
	return true
}

// Render returns the bytes that redraw prompt and buffer on the current line:
// return to column 0, write everything, erase whatever a longer previous line
// left behind, then step the cursor back to its offset.
//
// Only the current screen row is redrawn, so a prompt plus buffer wider than
// the terminal leaves its wrapped part behind. The step back counts runes, not
// display columns, which is off for wide characters. Both are fine for the
// short command grammar.
func (b *Buffer) Render(prompt string) string {
	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(prompt)
	sb.WriteString(string(b.runes))
	sb.WriteString("\033[K")
	if back := len(b.runes) - b.cursor; back > 0 {
		fmt.Fprintf(&sb, "\033[%dD", back)
	}
	return sb.String()
}
