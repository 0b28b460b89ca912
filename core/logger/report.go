package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		UnknownCommands: NewPathCounter("command", "status", "error"),
		SyntaxErrors:    NewPathCounter("line", "error"),
	}
}

// BugReport pulls events that are likely bugs in the shell or in the way it
// was used.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	UnknownCommands *PathCounter `json:"unknown_commands"`
	SyntaxErrors    *PathCounter `json:"syntax_errors"`
	Panics          []*Panic     `json:"panics"`
}

func (r *BugReport) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *Panic:
		r.Panics = append(r.Panics, event)
	case *UnknownCommand:
		r.UnknownCommands.Increment(firstOrEmpty(event.Command), strconv.Itoa(event.Status), event.ErrorMessage)
	case *SyntaxError:
		r.SyntaxErrors.Increment(event.Line, event.ErrorMessage)
	}
}

type InteractionReport struct {
	// Map of sessionID -> interactions
	interactions map[string]*InteractiveSession
}

type InteractiveSession struct {
	Version    string   `json:"version,omitempty"`
	TTYLog     string   `json:"tty_log,omitempty"`
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Jobs       []string `json:"jobs,omitempty"`
}

func (i *InteractiveSession) Update(le *LogEntry) {
	i.LogEntries++

	switch event := le.GetLogType().(type) {
	case *SessionStart:
		i.Version = event.Version
	case *RunCommand:
		i.Commands = append(i.Commands, strings.Join(event.Command, " "))
	case *UnknownCommand:
		i.Commands = append(i.Commands, strings.Join(event.Command, " "))
	case *SyntaxError:
		i.Commands = append(i.Commands, event.Line)
	case *JobUpdate:
		i.Jobs = append(i.Jobs, fmt.Sprintf("[%d] %s %s", event.Index, event.Status, event.Command))
	case *OpenTtyLog:
		i.TTYLog = event.Name
	}
}

func (i *InteractionReport) init() {
	if i.interactions == nil {
		i.interactions = make(map[string]*InteractiveSession)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (i *InteractionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.interactions)
}

func (i *InteractionReport) Update(le *LogEntry) {
	i.init()

	sessionID := le.SessionID
	if sessionID == "" {
		return
	}
	report, ok := i.interactions[sessionID]
	if !ok {
		report = &InteractiveSession{}
		i.interactions[sessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand     RunCommandReport     `json:"run_command_report"`
	UnknownCommand UnknownCommandReport `json:"unknown_command_report"`
	SyntaxError    SyntaxErrorReport    `json:"syntax_error_report"`
	Jobs           JobReport            `json:"job_report"`
	Panic          PanicReport          `json:"panic_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *SessionStart:
		r.Sessions++
	case *RunCommand:
		r.RunCommand.update(event)
	case *UnknownCommand:
		r.UnknownCommand.update(event)
	case *SyntaxError:
		r.SyntaxError.update(event)
	case *JobUpdate:
		r.Jobs.update(event)
	case *Panic:
		r.Panic.update(event)
	case *OpenTtyLog:
		// Ignore
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunCommandReport struct {
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Builtins and external programs
	Kinds StrCounter `json:"kinds"`
	// Exit statuses
	Statuses StrCounter `json:"statuses"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
	if rc.Builtin {
		r.Kinds.Increment("builtin")
	} else {
		r.Kinds.Increment("external")
	}
	r.Statuses.Increment(strconv.Itoa(rc.Status))
}

type UnknownCommandReport struct {
	CommandNames    StrCounter `json:"command_names"`
	CommandStatuses StrCounter `json:"command_statuses"`
}

func (r *UnknownCommandReport) update(logEntry *UnknownCommand) {
	if len(logEntry.Command) > 0 {
		r.CommandNames.Increment(logEntry.Command[0])
	}

	r.CommandStatuses.Increment(strconv.Itoa(logEntry.Status))
}

type SyntaxErrorReport struct {
	Count int `json:"count"`
}

func (r *SyntaxErrorReport) update(*SyntaxError) {
	r.Count++
}

type JobReport struct {
	// Number of times jobs entered each status.
	Transitions StrCounter `json:"transitions"`
	// Commands that were run as jobs.
	CommandNames StrCounter `json:"command_names"`
}

func (r *JobReport) update(ju *JobUpdate) {
	r.Transitions.Increment(ju.Status)
	if fields := strings.Fields(ju.Command); len(fields) > 0 {
		r.CommandNames.Increment(fields[0])
	}
}

type PanicReport struct {
	Contexts []string `json:"contexts"`
}

func (r *PanicReport) update(p *Panic) {
	r.Contexts = append(r.Contexts, p.Context)
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for the given key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of strings seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
