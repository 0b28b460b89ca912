package terminal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRawMode_notATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()

	raw := NewRawMode(int(f.Fd()))

	assert.Error(t, raw.Enter())
	assert.False(t, raw.Active())
	// Exit without a successful Enter is a no-op.
	assert.NoError(t, raw.Exit())
}

func TestNewController_detached(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()

	ctrl := NewController(int(f.Fd()))
	assert.IsType(t, Detached{}, ctrl)

	pgid, err := ctrl.Foreground()
	assert.NoError(t, err)
	assert.Equal(t, unix.Getpgrp(), pgid)
	assert.NoError(t, ctrl.SetForeground(pgid))

	attr := ctrl.ProcAttr(true)
	assert.True(t, attr.Setpgid)
	assert.False(t, attr.Foreground)
}

func TestTTY_ProcAttr(t *testing.T) {
	tty := &TTY{Fd: 7}

	bg := tty.ProcAttr(false)
	assert.True(t, bg.Setpgid)
	assert.False(t, bg.Foreground)

	fg := tty.ProcAttr(true)
	assert.True(t, fg.Setpgid)
	assert.True(t, fg.Foreground)
	assert.Equal(t, 7, fg.Ctty)
}

func TestSignals_interrupt(t *testing.T) {
	sigs := WatchSignals(nil)
	defer sigs.Stop()

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGINT))

	select {
	case sig := <-sigs.Interrupts():
		assert.Equal(t, unix.SIGINT, sig)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt was never delivered")
	}
}

func TestSignals_suppressInterrupts(t *testing.T) {
	sigs := WatchSignals(nil)
	defer sigs.Stop()

	restore := sigs.SuppressInterrupts()
	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGINT))

	// Wait for delivery before ending the section.
	deadline := time.Now().Add(5 * time.Second)
	for len(sigs.interrupts) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	restore()

	assert.Len(t, sigs.interrupts, 0)
}

func TestSignals_fatal(t *testing.T) {
	got := make(chan os.Signal, 1)
	sigs := WatchSignals(func(sig os.Signal) {
		got <- sig
	})
	defer sigs.Stop()

	require.NoError(t, unix.Kill(os.Getpid(), unix.SIGHUP))

	select {
	case sig := <-got:
		assert.Equal(t, unix.SIGHUP, sig)
	case <-time.After(5 * time.Second):
		t.Fatal("fatal handler never ran")
	}
}

func TestDrainInterrupts(t *testing.T) {
	ch := make(chan os.Signal, 1)
	ch <- os.Interrupt

	DrainInterrupts(ch)
	assert.Len(t, ch, 0)

	// Draining an empty channel never blocks.
	DrainInterrupts(ch)
}

func TestSize_notATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()

	_, _, err = Size(int(f.Fd()))
	assert.Error(t, err)
}
