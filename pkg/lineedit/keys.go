package lineedit

import (
	"unicode"
	"unicode/utf8"
)

// KeyKind identifies a decoded keypress.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyClearLine
	KeyInterrupt
)

// Key is one decoded keypress. Rune is only set for KeyRune.
type Key struct {
	Kind KeyKind
	Rune rune
}

const (
	keyCtrlA     = 0x01
	keyCtrlC     = 0x03
	keyCtrlE     = 0x05
	keyCtrlH     = 0x08
	keyCtrlU     = 0x15
	keyEscape    = 0x1b
	keyBackspace = 0x7f
)

// Decoder turns raw terminal bytes into keys. Escape sequences and UTF-8
// runes split across reads are held until the rest arrives.
type Decoder struct {
	pending []byte
}

// Feed decodes as many keys as the buffered bytes allow.
func (d *Decoder) Feed(data []byte) []Key {
	d.pending = append(d.pending, data...)
	var keys []Key
	for len(d.pending) > 0 {
		key, size, ok := decodeOne(d.pending)
		if size == 0 {
			break
		}
		d.pending = d.pending[size:]
		if ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Flush drops an incomplete sequence, e.g. a lone ESC followed by silence.
func (d *Decoder) Flush() {
	d.pending = d.pending[:0]
}

// decodeOne decodes the key at the start of b. size is the number of bytes
// consumed, zero when more input is needed; ok is false for ignored input.
func decodeOne(b []byte) (Key, int, bool) {
	switch c := b[0]; {
	case c == '\r' || c == '\n':
		return Key{Kind: KeyEnter}, 1, true
	case c == keyBackspace || c == keyCtrlH:
		return Key{Kind: KeyBackspace}, 1, true
	case c == keyCtrlC:
		return Key{Kind: KeyInterrupt}, 1, true
	case c == keyCtrlU:
		return Key{Kind: KeyClearLine}, 1, true
	case c == keyCtrlA:
		return Key{Kind: KeyHome}, 1, true
	case c == keyCtrlE:
		return Key{Kind: KeyEnd}, 1, true
	case c == keyEscape:
		return decodeEscape(b)
	case c < 0x20:
		return Key{}, 1, false
	}

	if !utf8.FullRune(b) {
		return Key{}, 0, false
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return Key{}, size, false
	}
	return Key{Kind: KeyRune, Rune: r}, size, true
}

func decodeEscape(b []byte) (Key, int, bool) {
	if len(b) < 2 {
		return Key{}, 0, false
	}
	if b[1] != '[' && b[1] != 'O' {
		// Lone ESC: drop it and decode the next byte on its own.
		return Key{}, 1, false
	}

	// CSI/SS3: parameter and intermediate bytes in 0x20..0x3f, then one final
	// byte in 0x40..0x7e. Any other byte ends a malformed sequence and is
	// left for the next decode.
	for i := 2; i < len(b); i++ {
		c := b[i]
		if c >= 0x20 && c <= 0x3f {
			continue
		}
		if c < 0x40 || c > 0x7e {
			return Key{}, i, false
		}
		params := string(b[2:i])
		size := i + 1
		switch c {
		case 'C':
			return Key{Kind: KeyRight}, size, true
		case 'D':
			return Key{Kind: KeyLeft}, size, true
		case 'H':
			return Key{Kind: KeyHome}, size, true
		case 'F':
			return Key{Kind: KeyEnd}, size, true
		case '~':
			switch params {
			case "3":
				return Key{Kind: KeyDelete}, size, true
			case "1", "7":
				return Key{Kind: KeyHome}, size, true
			case "4", "8":
				return Key{Kind: KeyEnd}, size, true
			}
		}
		return Key{}, size, false
	}
	return Key{}, 0, false
}
