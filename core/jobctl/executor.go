package jobctl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/josephlewis42/cash/core/shell"
	"github.com/josephlewis42/cash/core/terminal"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// Exit statuses for programs that couldn't be started.
const (
	StatusNotFound      = 127
	StatusNotExecutable = 126
)

// LaunchError is returned when a program couldn't be started at all, as
// opposed to starting and then failing.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return fmt.Sprintf("%s: command not found", e.Program)
	}
	return fmt.Sprintf("%s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Status is the conventional exit status for the failure.
func (e *LaunchError) Status() int {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return StatusNotFound
	}
	return StatusNotExecutable
}

// InterruptSuppressor marks sections where keyboard interrupts belong to a
// child rather than the shell.
type InterruptSuppressor interface {
	SuppressInterrupts() (restore func())
}

// Executor runs external commands and implements job control.
type Executor struct {
	Jobs     *Table
	Terminal terminal.Controller

	// Interrupts is optional.
	Interrupts InterruptSuppressor

	// Standard streams handed to children, nil streams are connected to the
	// null device.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Out receives job announcements.
	Out io.Writer

	// Procfs is the file system /proc is read from, nil means the host's.
	Procfs afero.Fs

	// OnUpdate, if set, is called every time a job is created or changes
	// status.
	OnUpdate func(index int, job Job)
}

// NewExecutor creates an Executor wired to the process's standard streams.
func NewExecutor(ctrl terminal.Controller) *Executor {
	return &Executor{
		Jobs:     &Table{},
		Terminal: ctrl,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Out:      os.Stdout,
	}
}

// Run executes an external command line that has already been expanded.
//
// A trailing "&" starts the command as a background job. A "|" splits the
// line into a two stage pipeline, which always runs in the foreground.
// Anything else runs in the foreground; if it's stopped it becomes a job.
//
// The error is a *LaunchError if a program couldn't be started.
func (e *Executor) Run(args []string) (int, error) {
	if len(args) == 0 {
		return 1, ErrEmptyCommand
	}

	restore := e.suppressInterrupts()
	defer restore()

	args, background := shell.TrimBackground(args)
	if len(args) == 0 {
		return 1, ErrEmptyCommand
	}

	if first, second, ok := shell.SplitPipeline(args); ok {
		return e.runPipeline(first, second)
	}

	if background {
		return e.runBackground(args)
	}

	return e.runForeground(args)
}

func (e *Executor) suppressInterrupts() func() {
	if e.Interrupts == nil {
		return func() {}
	}
	return e.Interrupts.SuppressInterrupts()
}

func (e *Executor) terminalController() terminal.Controller {
	if e.Terminal == nil {
		return terminal.Detached{}
	}
	return e.Terminal
}

func (e *Executor) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

func (e *Executor) update(index int, job *Job) {
	if e.OnUpdate != nil {
		e.OnUpdate(index, *job)
	}
}

// start launches args in a new process group with the given streams.
func (e *Executor) start(args []string, foreground bool, stdin, stdout *os.File) (int, error) {
	if len(args) == 0 {
		return 0, ErrEmptyCommand
	}

	cmd := exec.Command(args[0], args[1:]...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if e.Stderr != nil {
		cmd.Stderr = e.Stderr
	}
	cmd.SysProcAttr = e.terminalController().ProcAttr(foreground)

	if err := cmd.Start(); err != nil {
		return 0, &LaunchError{Program: args[0], Err: err}
	}

	pid := cmd.Process.Pid
	// The child is reaped with wait4 so its stop notifications can be seen.
	_ = cmd.Process.Release()
	return pid, nil
}

func (e *Executor) runBackground(args []string) (int, error) {
	pid, err := e.start(args, false, e.Stdin, e.Stdout)
	if err != nil {
		return launchStatus(err), err
	}

	index, job := e.Jobs.Add(Job{
		PID:     pid,
		PGID:    pid,
		Command: shell.Join(args, shell.DefaultDelimiter),
		Status:  Running,
	})
	e.update(index, job)
	fmt.Fprintf(e.out(), "[%d] %d\n", index, pid)
	return 0, nil
}

func (e *Executor) runForeground(args []string) (status int, err error) {
	ctrl := e.terminalController()
	shellGroup, err := ctrl.Foreground()
	if err != nil {
		return 1, err
	}

	pid, err := e.start(args, true, e.Stdin, e.Stdout)
	if err != nil {
		return launchStatus(err), err
	}
	defer func() {
		if handBackErr := ctrl.SetForeground(shellGroup); err == nil {
			err = handBackErr
		}
	}()

	ws, err := wait(pid, unix.WUNTRACED)
	if err != nil {
		return 1, fmt.Errorf("couldn't wait for %s: %w", args[0], err)
	}

	if ws.Stopped() {
		index, job := e.Jobs.Add(Job{
			PID:     pid,
			PGID:    pid,
			Command: shell.Join(args, shell.DefaultDelimiter),
			Status:  Stopped,
		})
		e.update(index, job)
		fmt.Fprintf(e.out(), "\n[%d] Stopped: %s\n", index, job.Command)
		return 0, nil
	}

	return exitCode(ws), nil
}

func (e *Executor) runPipeline(first, second []string) (status int, err error) {
	ctrl := e.terminalController()
	shellGroup, err := ctrl.Foreground()
	if err != nil {
		return 1, err
	}

	r, w, err := os.Pipe()
	if err != nil {
		return 1, fmt.Errorf("couldn't create pipe: %w", err)
	}

	pid1, err := e.start(first, true, e.Stdin, w)
	w.Close()
	if err != nil {
		r.Close()
		return launchStatus(err), err
	}
	defer func() {
		if handBackErr := ctrl.SetForeground(shellGroup); err == nil {
			err = handBackErr
		}
	}()

	pid2, err := e.start(second, false, r, e.Stdout)
	r.Close()
	if err != nil {
		// The first stage may never write, or may be reading the terminal.
		_ = unix.Kill(-pid1, unix.SIGKILL)
		_, _ = wait(pid1, 0)
		return launchStatus(err), err
	}

	// Both stages are waited on at once: a stopped stage 2 can block stage 1
	// on a full pipe until it's resumed.
	var (
		handOff    sync.Mutex
		wg         sync.WaitGroup
		ws1, ws2   unix.WaitStatus
		err1, err2 error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ws1, err1 = e.waitPipelineStage(pid1, &handOff)
	}()
	ws2, err2 = e.waitPipelineStage(pid2, &handOff)
	wg.Wait()

	switch {
	case err1 != nil:
		return 1, fmt.Errorf("couldn't wait for %s: %w", first[0], err1)
	case err2 != nil:
		return 1, fmt.Errorf("couldn't wait for %s: %w", second[0], err2)
	case ws1.Signaled():
		return exitCode(ws1), nil
	default:
		return exitCode(ws2), nil
	}
}

// waitPipelineStage waits for a pipeline stage to terminate. Pipelines can't
// be turned into jobs, so a stage that gets stopped is resumed. A stage that
// stops because it touched the terminal is given the terminal once; if that
// fails, or it stops that way again, it's killed rather than resumed.
// handOff serializes terminal hand-offs between the stages.
func (e *Executor) waitPipelineStage(pid int, handOff *sync.Mutex) (unix.WaitStatus, error) {
	handedOver := false
	for {
		ws, err := wait(pid, unix.WUNTRACED)
		if err != nil || !ws.Stopped() {
			return ws, err
		}

		switch ws.StopSignal() {
		case unix.SIGTTIN, unix.SIGTTOU:
			handOff.Lock()
			if handedOver || e.terminalController().SetForeground(pid) != nil {
				_ = unix.Kill(-pid, unix.SIGKILL)
			}
			handOff.Unlock()
			handedOver = true
		}
		_ = unix.Kill(-pid, unix.SIGCONT)
	}
}

func launchStatus(err error) int {
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		return launchErr.Status()
	}
	return 1
}
