package editor

// History is the append-only list of lines entered during a session.
type History struct {
	lines []string
}

// Append adds line as the newest entry.
func (h *History) Append(line string) {
	h.lines = append(h.lines, line)
}

// Len returns the number of entries. A nil History is empty.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.lines)
}

// At returns the i'th entry, oldest first.
func (h *History) At(i int) string {
	return h.lines[i]
}

// Lines returns a copy of every entry, oldest first.
func (h *History) Lines() []string {
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}
