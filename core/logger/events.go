package logger

// LogEntry is a single line of the event log. Exactly one of the event
// fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart   *SessionStart   `json:"session_start,omitempty"`
	RunCommand     *RunCommand     `json:"run_command,omitempty"`
	UnknownCommand *UnknownCommand `json:"unknown_command,omitempty"`
	SyntaxError    *SyntaxError    `json:"syntax_error,omitempty"`
	JobUpdate      *JobUpdate      `json:"job_update,omitempty"`
	Panic          *Panic          `json:"panic,omitempty"`
	OpenTtyLog     *OpenTtyLog     `json:"open_tty_log,omitempty"`
}

// LogType is implemented by every event that can be recorded.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event the entry carries, or nil if it has none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.SessionStart != nil:
		return le.SessionStart
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.SyntaxError != nil:
		return le.SyntaxError
	case le.JobUpdate != nil:
		return le.JobUpdate
	case le.Panic != nil:
		return le.Panic
	case le.OpenTtyLog != nil:
		return le.OpenTtyLog
	default:
		return nil
	}
}

// SessionStart is recorded when an interactive session begins.
type SessionStart struct {
	Version     string `json:"version"`
	Interactive bool   `json:"interactive"`
}

func (e *SessionStart) setOn(le *LogEntry) { le.SessionStart = e }

// RunCommand is recorded for every command that ran, builtin or external.
type RunCommand struct {
	Command []string `json:"command"`
	Builtin bool     `json:"builtin,omitempty"`
	Status  int      `json:"status"`
}

func (e *RunCommand) setOn(le *LogEntry) { le.RunCommand = e }

// UnknownCommand is recorded when a program couldn't be started.
type UnknownCommand struct {
	Command      []string `json:"command"`
	Status       int      `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func (e *UnknownCommand) setOn(le *LogEntry) { le.UnknownCommand = e }

// SyntaxError is recorded when a line can't be tokenized.
type SyntaxError struct {
	Line         string `json:"line"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (e *SyntaxError) setOn(le *LogEntry) { le.SyntaxError = e }

// JobUpdate is recorded when a job is created or changes status.
type JobUpdate struct {
	Index   int    `json:"index"`
	PID     int    `json:"pid"`
	Command string `json:"command"`
	Status  string `json:"status"`
}

func (e *JobUpdate) setOn(le *LogEntry) { le.JobUpdate = e }

// Panic is recorded when a builtin panics.
type Panic struct {
	Context    string `json:"context"`
	Stacktrace string `json:"stacktrace,omitempty"`
}

func (e *Panic) setOn(le *LogEntry) { le.Panic = e }

// OpenTtyLog is recorded when the session's terminal recording is created.
type OpenTtyLog struct {
	Name string `json:"name"`
}

func (e *OpenTtyLog) setOn(le *LogEntry) { le.OpenTtyLog = e }
