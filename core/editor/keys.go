package editor

import "github.com/abiosoft/readline"

// Key is a decoded keypress. Single byte keys use their byte value,
// multi-byte escape sequences use values above the byte range.
type Key rune

// Single byte keys the editor reacts to.
const (
	KeyInterrupt   = Key(readline.CharInterrupt)
	KeyEndOfInput  = Key(readline.CharDelete)
	KeyCtrlH       = Key(readline.CharCtrlH)
	KeyTab         = Key(readline.CharTab)
	KeyLineFeed    = Key(readline.CharCtrlJ)
	KeyClearScreen = Key(readline.CharCtrlL)
	KeyEnter       = Key(readline.CharEnter)
	KeyEscape      = Key(readline.CharEsc)
	KeyBackspace   = Key(readline.CharBackspace)
)

// Keys decoded from escape sequences.
const (
	KeyUp Key = 1000 + iota
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyDelete
)

// IsPrintable reports whether k inserts itself into the buffer.
func (k Key) IsPrintable() bool {
	return k >= ' ' && k < KeyBackspace
}

// decodeKey turns the byte first, plus whatever lookahead it needs, into a
// Key. next returns false if no byte arrived in time; in that case, or if the
// sequence isn't recognized, the result is KeyEscape.
//
// Recognized sequences are ESC [ A/B/C/D (arrows), ESC [ H/F (home/end) and
// ESC [ 3 ~ (delete).
func decodeKey(first byte, next func() (byte, bool)) Key {
	if first != byte(KeyEscape) {
		return Key(first)
	}

	intro, ok := next()
	if !ok || intro != readline.CharEscapeEx {
		return KeyEscape
	}
	code, ok := next()
	if !ok {
		return KeyEscape
	}

	switch code {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	case 'H':
		return KeyHome
	case 'F':
		return KeyEnd
	case '3':
		if tilde, ok := next(); ok && tilde == '~' {
			return KeyDelete
		}
	}

	return KeyEscape
}
