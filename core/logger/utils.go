package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogger creates a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{
		Record: func(*LogEntry) error { return nil },
	}
}

func (l *Logger) recordLogType(sessionID string, event LogType) error {
	le := &LogEntry{}
	le.TimestampMicros = time.Now().UnixMicro()
	le.SessionID = sessionID
	event.setOn(le)

	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) Record(event LogType) error {
	return l.recordLogType(l.sessionID, event)
}
