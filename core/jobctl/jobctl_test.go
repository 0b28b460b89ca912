package jobctl

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/josephlewis42/cash/core/shell"
	"github.com/josephlewis42/cash/core/terminal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func requirePrograms(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}
}

type testExecutor struct {
	*Executor
	out     *bytes.Buffer
	updates []string
}

func newTestExecutor(t *testing.T) *testExecutor {
	t.Helper()

	te := &testExecutor{out: &bytes.Buffer{}}
	te.Executor = &Executor{
		Jobs:     &Table{},
		Terminal: terminal.Detached{},
		Out:      te.out,
		OnUpdate: func(index int, job Job) {
			te.updates = append(te.updates, fmt.Sprintf("%d:%s", index, job.Status))
		},
	}

	t.Cleanup(func() {
		for _, e := range te.Jobs.All() {
			if e.Job.Status != Done {
				_ = unix.Kill(-e.Job.PGID, unix.SIGKILL)
				_, _ = wait(e.Job.PID, 0)
			}
		}
	})

	return te
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "Done", Done.String())
	assert.Equal(t, "Status(9)", Status(9).String())

	text, err := Stopped.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "stopped", string(text))
}

func TestTable(t *testing.T) {
	table := &Table{}

	i1, _ := table.Add(Job{PID: 10, Command: "a", Status: Stopped})
	i2, j2 := table.Add(Job{PID: 20, Command: "b", Status: Done})
	i3, _ := table.Add(Job{PID: 30, Command: "c", Status: Running})

	assert.Equal(t, []int{1, 2, 3}, []int{i1, i2, i3})
	assert.Equal(t, 3, table.Len())

	got, err := table.Get(2)
	assert.NoError(t, err)
	assert.Same(t, j2, got)

	_, err = table.Get(0)
	assert.ErrorIs(t, err, ErrNoSuchJob)
	_, err = table.Get(4)
	assert.ErrorIs(t, err, ErrNoSuchJob)

	var active []int
	for _, e := range table.Active() {
		active = append(active, e.Index)
	}
	assert.Equal(t, []int{1, 3}, active)

	index, job, ok := table.LastStopped()
	assert.True(t, ok)
	assert.Equal(t, 1, index)
	assert.Equal(t, 10, job.PID)

	job.Status = Running
	_, _, ok = table.LastStopped()
	assert.False(t, ok)
}

func TestParseJobSpec(t *testing.T) {
	cases := map[string]struct {
		spec     string
		expected int
		err      error
	}{
		"plain":      {"2", 2, nil},
		"marker":     {"%3", 3, nil},
		"not number": {"x", 0, ErrNoSuchJob},
		"bare mark":  {"%", 0, ErrNoSuchJob},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := ParseJobSpec(tc.spec)

			assert.Equal(t, tc.expected, actual)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcState(t *testing.T) {
	fs := afero.NewMemMapFs()
	write := func(pid int, contents string) {
		path := filepath.Join(ProcRoot, strconv.Itoa(pid), "stat")
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
	}

	write(42, "42 (sleep) T 1 42 42 0 -1")
	write(43, "43 (my (odd) cmd) R 1 43 43 0 -1")
	write(44, "44 (broken")

	state, err := ProcState(fs, 42)
	assert.NoError(t, err)
	assert.Equal(t, "T", state)

	state, err = ProcState(fs, 43)
	assert.NoError(t, err)
	assert.Equal(t, "R", state)

	_, err = ProcState(fs, 44)
	assert.Error(t, err)

	_, err = ProcState(fs, 45)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	// Layout of the traditional wait status word.
	exited := unix.WaitStatus(3 << 8)
	signaled := unix.WaitStatus(unix.SIGKILL)

	assert.Equal(t, 3, exitCode(exited))
	assert.Equal(t, 128+9, exitCode(signaled))
}

func TestRun_empty(t *testing.T) {
	te := newTestExecutor(t)

	_, err := te.Run(nil)
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = te.Run([]string{"&"})
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestRun_foreground(t *testing.T) {
	requirePrograms(t, "true", "false")
	te := newTestExecutor(t)

	status, err := te.Run([]string{"true"})
	assert.NoError(t, err)
	assert.Equal(t, 0, status)

	status, err = te.Run([]string{"false"})
	assert.NoError(t, err)
	assert.Equal(t, 1, status)

	assert.Equal(t, 0, te.Jobs.Len())
}

func TestRun_launchFailure(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.Run([]string{"cash-test-no-such-program"})

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, StatusNotFound, status)
	assert.Equal(t, "cash-test-no-such-program: command not found", err.Error())
	assert.Equal(t, 0, te.Jobs.Len())
}

func TestRun_pipeline(t *testing.T) {
	requirePrograms(t, "echo", "tr")
	te := newTestExecutor(t)

	out, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer out.Close()
	te.Stdout = out

	status, err := te.Run([]string{"echo", "hello", "|", "tr", "a-z", "A-Z"})
	assert.NoError(t, err)
	assert.Equal(t, 0, status)

	contents, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, "HELLO\n", string(contents))
}

func TestRun_pipelineSecondStageStatus(t *testing.T) {
	requirePrograms(t, "echo", "false")
	te := newTestExecutor(t)

	status, err := te.Run([]string{"echo", "hello", "|", "false"})
	assert.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestRun_pipelineLaunchFailure(t *testing.T) {
	requirePrograms(t, "echo")
	te := newTestExecutor(t)

	status, err := te.Run([]string{"echo", "hello", "|", "cash-test-no-such-program"})

	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, StatusNotFound, status)
}

func TestRun_pipelineLaunchFailureStopsFirstStage(t *testing.T) {
	requirePrograms(t, "sleep")
	te := newTestExecutor(t)

	start := time.Now()
	status, err := te.Run([]string{"sleep", "5", "|", "cash-test-no-such-program"})

	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, StatusNotFound, status)
	assert.Less(t, time.Since(start), 3*time.Second)
}

// recordingController is a Detached controller that remembers every group
// the terminal was handed to.
type recordingController struct {
	terminal.Detached
	fail   bool
	handed []int
}

func (c *recordingController) SetForeground(pgid int) error {
	c.handed = append(c.handed, pgid)
	if c.fail {
		return fmt.Errorf("no terminal")
	}
	return nil
}

func TestRun_pipelineStageNeedsTerminal(t *testing.T) {
	requirePrograms(t, "echo", "sh", "cat", "true")

	t.Run("handed the terminal", func(t *testing.T) {
		te := newTestExecutor(t)
		ctrl := &recordingController{}
		te.Terminal = ctrl

		out, err := os.Create(filepath.Join(t.TempDir(), "out"))
		require.NoError(t, err)
		defer out.Close()
		te.Stdout = out

		status, err := te.Run([]string{"echo", "hello", "|", "sh", "-c", "kill -TTOU $$; cat"})
		assert.NoError(t, err)
		assert.Equal(t, 0, status)

		contents, err := os.ReadFile(out.Name())
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(contents))

		// Once to the stage, once back to the shell.
		require.Len(t, ctrl.handed, 2)
		assert.Equal(t, unix.Getpgrp(), ctrl.handed[1])
	})

	t.Run("first stage blocked on a full pipe", func(t *testing.T) {
		requirePrograms(t, "yes", "head")
		te := newTestExecutor(t)
		te.Terminal = &recordingController{}

		status, err := te.Run([]string{"yes", "|", "sh", "-c", "kill -TTOU $$; head -c 1 >/dev/null"})
		assert.NoError(t, err)
		assert.Equal(t, 128+int(unix.SIGPIPE), status)
	})

	t.Run("stops again", func(t *testing.T) {
		te := newTestExecutor(t)
		te.Terminal = &recordingController{}

		status, err := te.Run([]string{"true", "|", "sh", "-c", "kill -TTIN $$; kill -TTIN $$; echo unreachable"})
		assert.NoError(t, err)
		assert.Equal(t, 128+int(unix.SIGKILL), status)
	})

	t.Run("terminal unavailable", func(t *testing.T) {
		te := newTestExecutor(t)
		te.Terminal = &recordingController{fail: true}

		status, err := te.Run([]string{"true", "|", "sh", "-c", "kill -TTOU $$; echo unreachable"})
		assert.Error(t, err)
		assert.Equal(t, 128+int(unix.SIGKILL), status)
	})
}

func TestRun_foregroundStop(t *testing.T) {
	requirePrograms(t, "sh")
	te := newTestExecutor(t)

	args := []string{"sh", "-c", "kill -STOP $$; kill -STOP $$"}
	command := shell.Join(args, shell.DefaultDelimiter)

	status, err := te.Run(args)
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	index, job, ok := te.Jobs.LastStopped()
	require.True(t, ok)
	assert.Equal(t, 1, index)
	assert.Equal(t, Stopped, job.Status)
	assert.Equal(t, job.PID, job.PGID)
	assert.Equal(t, command, job.Command)
	assert.Equal(t, fmt.Sprintf("\n[1] Stopped: %s\n", command), te.out.String())

	// Resumed, it stops itself a second time.
	te.out.Reset()
	status, err = te.Foreground("%1")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, Stopped, job.Status)
	assert.Equal(t, fmt.Sprintf("%s\n\n[1] Stopped: %s\n", command, command), te.out.String())

	status, err = te.Foreground("")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, Done, job.Status)
	assert.Equal(t, 1, te.Jobs.Len())

	assert.Equal(t, []string{"1:Stopped", "1:Running", "1:Stopped", "1:Running", "1:Done"}, te.updates)
}

func TestJobLifecycle(t *testing.T) {
	requirePrograms(t, "sleep")
	te := newTestExecutor(t)

	status, err := te.Run([]string{"sleep", "2", "&"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	job, err := te.Jobs.Get(1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("[1] %d\n", job.PID), te.out.String())
	assert.Equal(t, "sleep 2", job.Command)
	assert.Equal(t, job.PID, job.PGID)

	te.Reconcile()
	assert.Equal(t, Running, job.Status)

	// Stopped from outside the shell.
	require.NoError(t, unix.Kill(job.PID, unix.SIGSTOP))
	assert.Eventually(t, func() bool {
		te.Reconcile()
		return job.Status == Stopped
	}, 5*time.Second, 10*time.Millisecond)

	_, err = te.Foreground("%2")
	assert.ErrorIs(t, err, ErrNoSuchJob)

	te.out.Reset()
	status, err = te.Background("")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, Running, job.Status)
	assert.Equal(t, "[1] sleep 2 &\n", te.out.String())

	_, err = te.Background("1")
	assert.ErrorIs(t, err, ErrNotStopped)
	_, err = te.Background("")
	assert.ErrorIs(t, err, ErrNoCurrentJob)

	te.out.Reset()
	status, err = te.Foreground("1")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, Done, job.Status)
	assert.Equal(t, "sleep 2\n", te.out.String())

	// Retained, but no longer listed.
	assert.Equal(t, 1, te.Jobs.Len())
	assert.Empty(t, te.Jobs.Active())

	_, err = te.Foreground("1")
	assert.ErrorIs(t, err, ErrJobDone)
	_, err = te.Background("%1")
	assert.ErrorIs(t, err, ErrJobDone)

	assert.Equal(t, []string{"1:Running", "1:Stopped", "1:Running", "1:Done"}, te.updates)
}

func TestReconcile_exited(t *testing.T) {
	requirePrograms(t, "true")
	te := newTestExecutor(t)

	_, err := te.Run([]string{"true", "&"})
	require.NoError(t, err)
	job, err := te.Jobs.Get(1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		te.Reconcile()
		return job.Status == Done
	}, 5*time.Second, 10*time.Millisecond)
}

func TestReconcile_procfs(t *testing.T) {
	requirePrograms(t, "sleep")
	te := newTestExecutor(t)
	te.Procfs = afero.NewMemMapFs()

	_, err := te.Run([]string{"sleep", "30", "&"})
	require.NoError(t, err)
	job, err := te.Jobs.Get(1)
	require.NoError(t, err)

	te.Reconcile()
	assert.Equal(t, Running, job.Status)

	// A stop that wait4 didn't report is still picked up from /proc.
	path := filepath.Join(ProcRoot, strconv.Itoa(job.PID), "stat")
	stat := fmt.Sprintf("%d (sleep) T 1 %d %d 0 -1", job.PID, job.PID, job.PID)
	require.NoError(t, afero.WriteFile(te.Procfs, path, []byte(stat), 0644))

	te.Reconcile()
	assert.Equal(t, Stopped, job.Status)
}
