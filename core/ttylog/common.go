package ttylog

import (
	"io"
	"log"
	"sync"
	"time"
)

// FD identifies the stream an IO entry was read from or written to.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is a single recorded terminal event.
type Entry struct {
	TimestampMicros int64

	// FD and Data describe terminal IO.
	FD   FD
	Data []byte

	// Close marks the end of the session. Close entries carry no data.
	Close bool
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It reutrns io.EOF if the source
	// has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(logEntry *Entry) error {
		once.Do(func() {
			prevTimeMicros = logEntry.TimestampMicros
		})

		delta := logEntry.TimestampMicros - prevTimeMicros
		prevTimeMicros = logEntry.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(logEntry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer
func NewClientOutput(w io.Writer) LogSink {
	return func(logEntry *Entry) error {
		if logEntry.Close || logEntry.FD == FDStdin {
			return nil
		}
		_, err := w.Write(logEntry.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) (err error) {
	for {
		logEntry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(logEntry); err != nil {
			return err
		}
	}
}

// Recorder forwards terminal IO to a LogSink as it happens.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time
}

// NewRecorder creates a logger that forwards all events to output.
func NewRecorder(output LogSink) *Recorder {
	return &Recorder{
		output: output,
		now:    time.Now,
	}
}

func (r *Recorder) record(entry *Entry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry.TimestampMicros = r.now().UnixMicro()
	if err := r.output(entry); err != nil {
		log.Print(err)
	}
}

func (r *Recorder) recordIO(mockFd FD, data []byte, n int, err error) (int, error) {
	if n > 0 {
		recorded := make([]byte, n)
		copy(recorded, data[:n])
		r.record(&Entry{FD: mockFd, Data: recorded})
	}
	return n, err
}

// Reader records everything read through r as input.
func (r *Recorder) Reader(wrapped io.Reader) io.Reader {
	return &recorderReader{r: r, wrapped: wrapped}
}

// Writer records everything written through w to the given stream.
func (r *Recorder) Writer(mockFd FD, wrapped io.Writer) io.Writer {
	return &recorderWriter{r: r, mockFd: mockFd, wrapped: wrapped}
}

// Close records the end of the session.
func (r *Recorder) Close() error {
	r.record(&Entry{Close: true})
	return nil
}

type recorderReader struct {
	r       *Recorder
	wrapped io.Reader
}

var _ io.Reader = (*recorderReader)(nil)

func (rc *recorderReader) Read(p []byte) (int, error) {
	n, err := rc.wrapped.Read(p)
	return rc.r.recordIO(FDStdin, p, n, err)
}

type recorderWriter struct {
	r       *Recorder
	mockFd  FD
	wrapped io.Writer
}

var _ io.Writer = (*recorderWriter)(nil)

func (rc *recorderWriter) Write(p []byte) (int, error) {
	n, err := rc.wrapped.Write(p)
	return rc.r.recordIO(rc.mockFd, p, n, err)
}
