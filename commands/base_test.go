package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/cash/core/jobctl"
	"github.com/josephlewis42/cash/core/shell"
	"github.com/josephlewis42/cash/core/terminal"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

// newTestShell creates a shell with a private environment whose output,
// including errors and job announcements, is collected in one buffer.
func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	executor := jobctl.NewExecutor(terminal.Detached{})
	executor.Stdin = nil
	executor.Stdout = nil
	executor.Stderr = nil
	executor.Out = out

	s := NewShell(out, out, executor)
	s.Env = shell.NewMapEnv()
	return s, out
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	// Lines are run in order by the same shell.
	Lines []string
	Env   map[string]string
}

func (gts goldenTestSuite) Run(t *testing.T) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			s, out := newTestShell(t)
			for k, v := range tc.Env {
				s.Env.Setenv(k, v)
			}

			for _, line := range tc.Lines {
				s.History.Append(line)
				s.RunLine(line)
			}

			g.Assert(t, tn, out.Bytes())
		})
	}
}

func TestAllBuiltins(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range ListBuiltins() {
		t.Run(b.Name, func(t *testing.T) {
			if b.Cmd == nil {
				t.Fatal("nil command", b.Name)
			}
			assert.NotEmpty(t, b.Description)
			assert.False(t, seen[b.Name], "duplicate builtin")
			seen[b.Name] = true
		})
	}

	assert.Equal(t, "help", ListBuiltins()[0].Name)
}

func TestColorPrinter(t *testing.T) {
	plain := ColorPrinter{}
	assert.Equal(t, "cd: oops", plain.Sprintf(ColorBoldRed, "cd: %s", "oops"))
	assert.Nil(t, plain.Color(ColorBoldRed))

	colored := ColorPrinter{Enabled: true}
	out := colored.Sprintf(ColorBoldRed, "cd: %s", "oops")
	assert.True(t, strings.HasPrefix(out, "\x1b["), "got %q", out)
	assert.Contains(t, out, "cd: oops")
	assert.NotNil(t, colored.Color(ColorBoldRed))
}

func TestSimpleCommand_badFlag(t *testing.T) {
	s, out := newTestShell(t)

	status := s.Execute([]string{"history", "-z"})

	assert.Equal(t, 1, status)
	assert.Contains(t, out.String(), "history: unknown option: -z")
	assert.Contains(t, out.String(), "usage: history")
}

func TestSimpleCommand_help(t *testing.T) {
	s, out := newTestShell(t)

	status := s.Execute([]string{"jobs", "--help"})

	assert.Equal(t, 0, status)
	assert.True(t, strings.HasPrefix(out.String(), "usage: jobs [-l]\nDisplay status of jobs.\n\nFlags:\n"), "got %q", out.String())
	assert.Contains(t, out.String(), "also list process group IDs")
}
