package terminal

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// FatalSignals end the session after the terminal is restored.
var FatalSignals = []os.Signal{unix.SIGTERM, unix.SIGQUIT, unix.SIGHUP}

// Signals routes the signals an interactive shell handles itself.
//
// Interrupts are only recorded: each SIGINT is queued (at most one at a time)
// on the channel returned by Interrupts, and whoever is waiting for input
// decides what to do with it. Stop requests from the keyboard are discarded so
// the shell can't be suspended at its own prompt.
type Signals struct {
	interrupts chan os.Signal
	fatal      chan os.Signal
	stops      chan os.Signal
	done       chan struct{}
	stopOnce   sync.Once
}

// WatchSignals starts handling signals. onFatal is called from a separate
// goroutine with the first fatal signal received; it's expected to restore
// the terminal and exit the process.
func WatchSignals(onFatal func(os.Signal)) *Signals {
	s := &Signals{
		interrupts: make(chan os.Signal, 1),
		fatal:      make(chan os.Signal, 1),
		stops:      make(chan os.Signal, 1),
		done:       make(chan struct{}),
	}

	signal.Notify(s.interrupts, unix.SIGINT)
	signal.Notify(s.stops, unix.SIGTSTP)
	signal.Notify(s.fatal, FatalSignals...)

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.stops:
			case sig := <-s.fatal:
				if onFatal != nil {
					onFatal(sig)
				}
				return
			}
		}
	}()

	return s
}

// Interrupts receives a value for each SIGINT not yet consumed.
func (s *Signals) Interrupts() <-chan os.Signal {
	return s.interrupts
}

// SuppressInterrupts starts a section where interrupts are meant for a child
// rather than the shell. The returned function ends the section and drops any
// interrupt that arrived during it.
//
// SIGINT stays caught rather than ignored: an ignored disposition would be
// inherited by every program the shell starts.
func (s *Signals) SuppressInterrupts() (restore func()) {
	return func() {
		DrainInterrupts(s.interrupts)
	}
}

// Stop restores default handling for every signal WatchSignals registered.
func (s *Signals) Stop() {
	s.stopOnce.Do(func() {
		signal.Stop(s.interrupts)
		signal.Stop(s.stops)
		signal.Stop(s.fatal)
		close(s.done)
	})
}

// DrainInterrupts discards any interrupts pending on ch.
func DrainInterrupts(ch <-chan os.Signal) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
