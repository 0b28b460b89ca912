package jobctl

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// ProcRoot is where the process information pseudo file system is mounted.
const ProcRoot = "/proc"

// stateStopped is the state /proc/<pid>/stat reports for a stopped process.
const stateStopped = "T"

// ProcState returns the one letter state of pid as reported by
// /proc/<pid>/stat on fs.
func ProcState(fs afero.Fs, pid int) (string, error) {
	data, err := afero.ReadFile(fs, path.Join(ProcRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", err
	}

	// The command name is in parentheses and may itself contain spaces or
	// parentheses; the state is the first field after the last ')'.
	stat := string(data)
	end := strings.LastIndexByte(stat, ')')
	if end < 0 {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(stat[end+1:])
	if len(fields) == 0 {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	return fields[0], nil
}

// wait blocks until pid changes state as selected by options.
func wait(pid int, options int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return ws, err
	}
}

// exitCode converts a terminal wait status to a command result. Processes
// killed by a signal report 128 plus the signal number.
func exitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 0
	}
}

// probe checks on job without blocking and updates its status. It reports
// whether the status changed.
func (e *Executor) probe(job *Job) bool {
	switch job.Status {
	case Running:
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(job.PID, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
		switch {
		case err != nil, wpid == job.PID && !ws.Stopped():
			job.Status = Done
		case wpid == job.PID && ws.Stopped():
			job.Status = Stopped
		default:
			// Still alive, it may have been stopped without us being told.
			if state, err := ProcState(e.procfs(), job.PID); err == nil && state == stateStopped {
				job.Status = Stopped
			}
		}
		return job.Status != Running

	case Stopped:
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(job.PID, &ws, unix.WNOHANG|unix.WCONTINUED, nil)
		switch {
		case err != nil, wpid == job.PID && !ws.Continued():
			job.Status = Done
		case wpid == job.PID && ws.Continued():
			job.Status = Running
		}
		return job.Status != Stopped
	}

	return false
}

// Reconcile brings every unfinished job's status up to date.
func (e *Executor) Reconcile() {
	for _, entry := range e.Jobs.All() {
		if e.probe(entry.Job) {
			e.update(entry.Index, entry.Job)
		}
	}
}

func (e *Executor) procfs() afero.Fs {
	if e.Procfs != nil {
		return e.Procfs
	}
	return afero.NewReadOnlyFs(afero.NewOsFs())
}
