package jobctl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Foreground resumes a job in the foreground and waits for it to exit or
// stop again. spec is a job reference as accepted by ParseJobSpec, the empty
// string means job 1.
//
// The terminal is handed back to the shell before Foreground returns, even if
// resuming the job failed.
func (e *Executor) Foreground(spec string) (status int, err error) {
	index := 1
	if spec != "" {
		if index, err = ParseJobSpec(spec); err != nil {
			return 1, err
		}
	}

	e.Reconcile()

	job, err := e.Jobs.Get(index)
	if err != nil {
		return 1, err
	}
	if job.Status == Done {
		return 1, ErrJobDone
	}

	fmt.Fprintln(e.out(), job.Command)

	restore := e.suppressInterrupts()
	defer restore()

	ctrl := e.terminalController()
	shellGroup, err := ctrl.Foreground()
	if err != nil {
		return 1, err
	}
	defer func() {
		if handBackErr := ctrl.SetForeground(shellGroup); err == nil {
			err = handBackErr
		}
	}()

	if err := ctrl.SetForeground(job.PGID); err != nil {
		return 1, err
	}

	if job.Status == Stopped {
		if err := unix.Kill(-job.PGID, unix.SIGCONT); err != nil {
			return 1, fmt.Errorf("couldn't continue job %d: %w", index, err)
		}
		job.Status = Running
		e.update(index, job)
	}

	ws, err := wait(job.PID, unix.WUNTRACED)
	switch {
	case errors.Is(err, unix.ECHILD):
		// Reaped elsewhere, nothing is left to wait for.
		job.Status = Done
		e.update(index, job)
		return 0, nil
	case err != nil:
		return 1, fmt.Errorf("couldn't wait for job %d: %w", index, err)
	case ws.Stopped():
		job.Status = Stopped
		e.update(index, job)
		fmt.Fprintf(e.out(), "\n[%d] Stopped: %s\n", index, job.Command)
		return 0, nil
	default:
		job.Status = Done
		e.update(index, job)
		return exitCode(ws), nil
	}
}

// Background resumes a stopped job without waiting for it. spec is a job
// reference as accepted by ParseJobSpec, the empty string means the most
// recently stopped job.
func (e *Executor) Background(spec string) (int, error) {
	e.Reconcile()

	var (
		index int
		job   *Job
		err   error
	)
	if spec == "" {
		var ok bool
		if index, job, ok = e.Jobs.LastStopped(); !ok {
			return 1, ErrNoCurrentJob
		}
	} else {
		if index, err = ParseJobSpec(spec); err != nil {
			return 1, err
		}
		if job, err = e.Jobs.Get(index); err != nil {
			return 1, err
		}
	}

	switch job.Status {
	case Done:
		return 1, ErrJobDone
	case Running:
		return 1, ErrNotStopped
	}

	if err := unix.Kill(-job.PGID, unix.SIGCONT); err != nil {
		return 1, fmt.Errorf("couldn't continue job %d: %w", index, err)
	}

	job.Status = Running
	e.update(index, job)
	fmt.Fprintf(e.out(), "[%d] %s &\n", index, job.Command)
	return 0, nil
}
