package editor

import "strings"

// wordDelimiter separates the word completion looks at from the rest of the
// line.
const wordDelimiter = ' '

// Completer returns every completion candidate starting with word.
type Completer func(word string) []string

// State is the line being edited.
type State struct {
	Buffer []rune
	Cursor int

	// HistoryIndex is the history entry being shown; History.Len() means the
	// line is new rather than recalled.
	HistoryIndex int
}

// Result tells the caller what to do after a key was applied.
type Result struct {
	// Done is set when the line is complete.
	Done bool

	// EndOfInput is set when the user asked to end the session.
	EndOfInput bool

	// Cancelled is set when the line was thrown away.
	Cancelled bool

	// ClearScreen is set when the screen should be erased before redrawing.
	ClearScreen bool

	// Candidates lists completions to show below the line.
	Candidates []string
}

// NewState returns an empty line positioned after the newest history entry.
func NewState(history *History) *State {
	return &State{HistoryIndex: history.Len()}
}

// Line returns the buffer contents.
func (s *State) Line() string {
	return string(s.Buffer)
}

func (s *State) load(line string) {
	s.Buffer = []rune(line)
	s.Cursor = len(s.Buffer)
}

func (s *State) insert(text []rune) {
	buf := make([]rune, 0, len(s.Buffer)+len(text))
	buf = append(buf, s.Buffer[:s.Cursor]...)
	buf = append(buf, text...)
	buf = append(buf, s.Buffer[s.Cursor:]...)
	s.Buffer = buf
	s.Cursor += len(text)
}

// Apply updates the state for a single keypress. history may be nil and
// complete may be nil.
func (s *State) Apply(key Key, history *History, complete Completer) Result {
	switch key {
	case KeyEnter, KeyLineFeed:
		return Result{Done: true}

	case KeyInterrupt:
		s.Buffer = nil
		s.Cursor = 0
		return Result{Cancelled: true}

	case KeyEndOfInput:
		if len(s.Buffer) == 0 {
			return Result{EndOfInput: true}
		}

	case KeyBackspace, KeyCtrlH:
		if s.Cursor > 0 {
			s.Buffer = append(s.Buffer[:s.Cursor-1], s.Buffer[s.Cursor:]...)
			s.Cursor--
		}

	case KeyDelete:
		if s.Cursor < len(s.Buffer) {
			s.Buffer = append(s.Buffer[:s.Cursor], s.Buffer[s.Cursor+1:]...)
		}

	case KeyLeft:
		if s.Cursor > 0 {
			s.Cursor--
		}

	case KeyRight:
		if s.Cursor < len(s.Buffer) {
			s.Cursor++
		}

	case KeyUp:
		if history.Len() > 0 && s.HistoryIndex > 0 {
			s.HistoryIndex--
			s.load(history.At(s.HistoryIndex))
		}

	case KeyDown:
		switch n := history.Len(); {
		case s.HistoryIndex < n-1:
			s.HistoryIndex++
			s.load(history.At(s.HistoryIndex))
		case s.HistoryIndex == n-1:
			s.HistoryIndex = n
			s.load("")
		}

	case KeyTab:
		return Result{Candidates: s.complete(complete)}

	case KeyHome:
		s.Cursor = 0

	case KeyEnd:
		s.Cursor = len(s.Buffer)

	case KeyClearScreen:
		return Result{ClearScreen: true}

	default:
		if key.IsPrintable() {
			s.insert([]rune{rune(key)})
		}
	}

	return Result{}
}

// complete inserts the only candidate for the word before the cursor, or
// returns the candidates if there is more than one.
func (s *State) complete(complete Completer) []string {
	if complete == nil {
		return nil
	}

	start := s.Cursor
	for start > 0 && s.Buffer[start-1] != wordDelimiter {
		start--
	}
	word := string(s.Buffer[start:s.Cursor])
	if word == "" {
		return nil
	}

	var candidates []string
	for _, c := range complete(word) {
		if strings.HasPrefix(c, word) {
			candidates = append(candidates, c)
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		s.insert([]rune(strings.TrimPrefix(candidates[0], word)))
		return nil
	default:
		return candidates
	}
}
