package editor

import (
	"errors"
	"io"
	"os"
	"time"
)

// ErrInterrupted is returned by Input.ReadByte when an interrupt arrives
// before the next byte.
var ErrInterrupted = errors.New("interrupted")

type inputResult struct {
	b   byte
	err error
}

// Input reads keyboard bytes one at a time while watching for interrupts.
//
// Reads happen on a separate goroutine, but only when a byte is asked for, so
// nothing is read from the terminal while a child process owns it.
type Input struct {
	requests   chan struct{}
	results    chan inputResult
	interrupts <-chan os.Signal

	// pending is set while a read has been requested but not consumed.
	pending bool
}

// NewInput starts reading r on demand. interrupts may be nil.
func NewInput(r io.Reader, interrupts <-chan os.Signal) *Input {
	in := &Input{
		requests:   make(chan struct{}),
		results:    make(chan inputResult, 1),
		interrupts: interrupts,
	}

	go func() {
		buf := make([]byte, 1)
		for range in.requests {
			n, err := r.Read(buf)
			for n == 0 && err == nil {
				n, err = r.Read(buf)
			}
			if n == 1 {
				err = nil
			}
			in.results <- inputResult{b: buf[0], err: err}
		}
		close(in.results)
	}()

	return in
}

func (in *Input) request() {
	if !in.pending {
		in.requests <- struct{}{}
		in.pending = true
	}
}

// ReadByte waits for the next byte. If an interrupt arrives first it returns
// ErrInterrupted and the byte, once read, is returned by the next call.
func (in *Input) ReadByte() (byte, error) {
	in.request()

	select {
	case res, ok := <-in.results:
		in.pending = false
		if !ok {
			return 0, io.EOF
		}
		return res.b, res.err
	case <-in.interrupts:
		return 0, ErrInterrupted
	}
}

// readByteWithin waits at most timeout for the next byte; a timeout of zero
// or less uses DefaultEscapeTimeout. Interrupts are left queued for ReadByte.
func (in *Input) readByteWithin(timeout time.Duration) (byte, bool) {
	in.request()

	if timeout <= 0 {
		timeout = DefaultEscapeTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res, ok := <-in.results:
		in.pending = false
		if !ok || res.err != nil {
			return 0, false
		}
		return res.b, true
	case <-timer.C:
		return 0, false
	}
}

// ReadKey reads one keypress, using a lookahead of at most escapeTimeout per
// byte to decode escape sequences.
func (in *Input) ReadKey(escapeTimeout time.Duration) (Key, error) {
	first, err := in.ReadByte()
	if err != nil {
		return 0, err
	}

	return decodeKey(first, func() (byte, bool) {
		return in.readByteWithin(escapeTimeout)
	}), nil
}

// Close stops the reading goroutine once any outstanding read finishes.
func (in *Input) Close() {
	close(in.requests)
}
