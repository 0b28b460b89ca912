// Package editor implements the raw-mode line editor used at the prompt.
package editor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
)

// ErrEOF is returned by ReadLine when the user ends input on an empty line.
var ErrEOF = errors.New("end of input")

// DefaultEscapeTimeout bounds how long ReadKey waits for each byte of an
// escape sequence.
const DefaultEscapeTimeout = 50 * time.Millisecond

const (
	eraseLine   = "\r\033[K"
	clearScreen = "\033[2J\033[H"
)

// RawTerminal is a terminal the editor can put into raw mode while it reads.
type RawTerminal interface {
	Enter() error
	Exit() error
}

// Editor reads lines from the user, one keypress at a time.
type Editor struct {
	// Prompt is shown before the line.
	Prompt string
	// PromptColor styles the prompt, nil leaves it plain.
	PromptColor *color.Color
	// CandidateColor styles listed completion candidates, nil leaves them plain.
	CandidateColor *color.Color

	// Out receives the echoed line.
	Out io.Writer
	// Terminal, if set, is held in raw mode for the duration of each ReadLine.
	Terminal RawTerminal

	History  *History
	Complete Completer

	// EscapeTimeout bounds the escape sequence lookahead, zero means
	// DefaultEscapeTimeout.
	EscapeTimeout time.Duration
}

// ReadLine reads one line from in.
//
// The line is returned when the user presses Enter. ErrEOF is returned if the
// user presses Ctrl-D on an empty line or input ends on an empty line. An
// interrupt clears the line and editing continues.
func (e *Editor) ReadLine(in *Input) (line string, err error) {
	defer func() {
		if err == nil {
			fmt.Fprint(e.Out, "\n")
		}
	}()

	if e.Terminal != nil {
		if err := e.Terminal.Enter(); err != nil {
			return "", err
		}
		defer func() {
			if exitErr := e.Terminal.Exit(); err == nil {
				err = exitErr
			}
		}()
	}

	state := NewState(e.History)
	e.redraw(state)

	for {
		key, err := in.ReadKey(e.EscapeTimeout)
		switch {
		case errors.Is(err, ErrInterrupted):
			key = KeyInterrupt
		case err == io.EOF:
			if len(state.Buffer) == 0 {
				fmt.Fprint(e.Out, "exit\n")
				return "", ErrEOF
			}
			return state.Line(), nil
		case err != nil:
			return "", err
		}

		result := state.Apply(key, e.History, e.Complete)
		switch {
		case result.Done:
			return state.Line(), nil
		case result.EndOfInput:
			fmt.Fprint(e.Out, "exit\n")
			return "", ErrEOF
		case result.Cancelled:
			fmt.Fprint(e.Out, "^C\n")
		case result.ClearScreen:
			fmt.Fprint(e.Out, clearScreen)
		case len(result.Candidates) > 0:
			e.listCandidates(result.Candidates)
		}

		e.redraw(state)
	}
}

func (e *Editor) listCandidates(candidates []string) {
	var sb strings.Builder
	sb.WriteString("\n")
	for _, c := range candidates {
		if e.CandidateColor != nil {
			c = e.CandidateColor.Sprint(c)
		}
		sb.WriteString(c)
		sb.WriteString("  ")
	}
	sb.WriteString("\n")
	fmt.Fprint(e.Out, sb.String())
}

// redraw erases the current line, prints the prompt and buffer, then moves
// the terminal cursor to the edit position.
func (e *Editor) redraw(state *State) {
	prompt := e.Prompt
	if e.PromptColor != nil {
		prompt = e.PromptColor.Sprint(prompt)
	}

	var sb strings.Builder
	sb.WriteString(eraseLine)
	sb.WriteString(prompt)
	sb.WriteString(state.Line())
	sb.WriteString("\r")
	if column := e.column(state); column > 0 {
		fmt.Fprintf(&sb, "\033[%dC", column)
	}

	fmt.Fprint(e.Out, sb.String())
}

// column is the screen column of the cursor, counted in cells.
func (e *Editor) column(state *State) int {
	var rs readline.Runes
	return rs.WidthAll([]rune(e.Prompt)) + rs.WidthAll(state.Buffer[:state.Cursor])
}
