package terminal

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/abiosoft/readline"
	"golang.org/x/sys/unix"
)

// Controller decides which process group owns the terminal.
type Controller interface {
	// Foreground returns the process group currently owning the terminal.
	Foreground() (int, error)

	// SetForeground hands the terminal to the process group pgid.
	SetForeground(pgid int) error

	// ProcAttr returns the attributes for a child started in its own process
	// group. If foreground is set the child also takes the terminal before it
	// runs its program.
	ProcAttr(foreground bool) *syscall.SysProcAttr
}

// NewController returns a TTY controller if fd is a terminal and a Detached
// controller otherwise.
func NewController(fd int) Controller {
	if readline.IsTerminal(fd) {
		return &TTY{Fd: fd}
	}
	return Detached{}
}

// TTY controls a real terminal.
type TTY struct {
	Fd int
}

var _ Controller = (*TTY)(nil)

// Foreground implements Controller.Foreground.
func (t *TTY) Foreground() (int, error) {
	pgid, err := unix.IoctlGetInt(t.Fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, fmt.Errorf("couldn't get foreground process group: %w", err)
	}
	return pgid, nil
}

// SetForeground implements Controller.SetForeground.
func (t *TTY) SetForeground(pgid int) error {
	// A process outside the foreground group gets SIGTTOU for tcsetpgrp.
	signal.Ignore(unix.SIGTTOU)
	defer signal.Reset(unix.SIGTTOU)

	if err := unix.IoctlSetPointerInt(t.Fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("couldn't set foreground process group to %d: %w", pgid, err)
	}
	return nil
}

// ProcAttr implements Controller.ProcAttr.
func (t *TTY) ProcAttr(foreground bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if foreground {
		attr.Foreground = true
		attr.Ctty = t.Fd
	}
	return attr
}

// Detached is used when the shell isn't attached to a terminal, for example
// when input is piped in. Children still get their own process groups.
type Detached struct{}

var _ Controller = Detached{}

// Foreground implements Controller.Foreground.
func (Detached) Foreground() (int, error) {
	return unix.Getpgrp(), nil
}

// SetForeground implements Controller.SetForeground.
func (Detached) SetForeground(int) error {
	return nil
}

// ProcAttr implements Controller.ProcAttr.
func (Detached) ProcAttr(bool) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
