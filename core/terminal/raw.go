// Package terminal owns the interactive terminal: raw mode, foreground
// process group hand-off and the signals an interactive shell handles itself.
package terminal

import (
	"fmt"
	"sync"

	"github.com/abiosoft/readline"
	"golang.org/x/sys/unix"
)

// RawMode switches a terminal between its original settings and the
// character-at-a-time mode the line editor needs.
//
// Enter and Exit are safe to call from any goroutine and any number of times;
// Exit only restores if a matching Enter succeeded.
type RawMode struct {
	fd int

	mu    sync.Mutex
	saved *readline.State
}

// NewRawMode creates a RawMode for the terminal open on fd.
func NewRawMode(fd int) *RawMode {
	return &RawMode{fd: fd}
}

// Enter puts the terminal into raw mode.
//
// Unlike cfmakeraw, signal generating keys stay active so Ctrl-C and Ctrl-Z
// still reach the foreground process group, and output processing is kept so
// "\n" still returns the carriage.
func (r *RawMode) Enter() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saved != nil {
		return nil
	}

	saved, err := readline.GetState(r.fd)
	if err != nil {
		return fmt.Errorf("couldn't read terminal state: %w", err)
	}

	termios, err := unix.IoctlGetTermios(r.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("couldn't read terminal state: %w", err)
	}

	termios.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	termios.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(r.fd, ioctlSetTermios, termios); err != nil {
		return fmt.Errorf("couldn't enter raw mode: %w", err)
	}

	r.saved = saved
	return nil
}

// Exit restores the settings captured by the last successful Enter.
func (r *RawMode) Exit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saved == nil {
		return nil
	}

	state := r.saved
	r.saved = nil
	return readline.Restore(r.fd, state)
}

// Active reports whether the terminal is currently in raw mode.
func (r *RawMode) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saved != nil
}
