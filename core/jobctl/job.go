// Package jobctl starts external programs and tracks the ones that outlive a
// single command line as jobs.
package jobctl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned for bad job references.
var (
	ErrNoSuchJob     = errors.New("no such job")
	ErrJobDone       = errors.New("job has terminated")
	ErrNotStopped    = errors.New("job already in background")
	ErrNoCurrentJob  = errors.New("no current job")
	ErrEmptyCommand  = errors.New("empty command")
	errUnknownStatus = errors.New("unknown job status")
)

// JobMarker optionally prefixes a job index, as in "fg %2".
const JobMarker = "%"

// Status is the lifecycle state of a job. Done is final.
type Status int

const (
	Running Status = iota
	Stopped
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case Running, Stopped, Done:
		return []byte(strings.ToLower(s.String())), nil
	default:
		return nil, errUnknownStatus
	}
}

// Job is an external process the shell keeps track of.
type Job struct {
	PID     int
	PGID    int
	Command string
	Status  Status
}

// Entry is a job along with its display index.
type Entry struct {
	Index int
	Job   *Job
}

// Table holds every job created in the session. Jobs are never removed, so
// a job's display index stays valid for the life of the session.
type Table struct {
	jobs []*Job
}

// Add appends job and returns its 1-based display index.
func (t *Table) Add(job Job) (int, *Job) {
	j := &job
	t.jobs = append(t.jobs, j)
	return len(t.jobs), j
}

// Len returns the number of jobs ever added.
func (t *Table) Len() int {
	return len(t.jobs)
}

// Get returns the job with the given display index.
func (t *Table) Get(index int) (*Job, error) {
	if index < 1 || index > len(t.jobs) {
		return nil, ErrNoSuchJob
	}
	return t.jobs[index-1], nil
}

// All returns every job, including finished ones, in display order.
func (t *Table) All() []Entry {
	out := make([]Entry, 0, len(t.jobs))
	for i, j := range t.jobs {
		out = append(out, Entry{Index: i + 1, Job: j})
	}
	return out
}

// Active returns the jobs that aren't Done in display order.
func (t *Table) Active() []Entry {
	var out []Entry
	for _, e := range t.All() {
		if e.Job.Status != Done {
			out = append(out, e)
		}
	}
	return out
}

// LastStopped returns the newest Stopped job.
func (t *Table) LastStopped() (int, *Job, bool) {
	for i := len(t.jobs) - 1; i >= 0; i-- {
		if t.jobs[i].Status == Stopped {
			return i + 1, t.jobs[i], true
		}
	}
	return 0, nil, false
}

// ParseJobSpec parses a job reference of the form "N" or "%N".
func ParseJobSpec(spec string) (int, error) {
	index, err := strconv.Atoi(strings.TrimPrefix(spec, JobMarker))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", spec, ErrNoSuchJob)
	}
	return index, nil
}
