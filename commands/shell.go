package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/josephlewis42/cash/core/editor"
	"github.com/josephlewis42/cash/core/jobctl"
	"github.com/josephlewis42/cash/core/logger"
	"github.com/josephlewis42/cash/core/shell"
)

const (
	Version       = "0.1"
	DefaultPrompt = "cash> "

	EnvPWD = "PWD"
)

// Shell holds the state of one interactive session.
type Shell struct {
	Env      shell.Env
	Aliases  shell.Aliases
	History  *editor.History
	Executor *jobctl.Executor
	Editor   *editor.Editor

	Stdout io.Writer
	Stderr io.Writer

	Events *logger.SessionLogger
	Color  ColorPrinter

	lastStatus int

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a session that runs external commands with executor and
// writes its own output to stdout and stderr.
func NewShell(stdout, stderr io.Writer, executor *jobctl.Executor) *Shell {
	s := &Shell{
		Env:      shell.OSEnv{},
		Aliases:  shell.Aliases{},
		History:  &editor.History{},
		Executor: executor,
		Stdout:   stdout,
		Stderr:   stderr,
		Events:   logger.NewNopLogger().Sessionless(),
	}

	s.Editor = &editor.Editor{
		Prompt:        DefaultPrompt,
		Out:           stdout,
		History:       s.History,
		Complete:      s.Complete,
		EscapeTimeout: editor.DefaultEscapeTimeout,
	}

	executor.OnUpdate = s.recordJobUpdate

	return s
}

// LastStatus is the status of the most recent command.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// PrintError writes a message to stderr, in red if color is enabled.
func (s *Shell) PrintError(format string, a ...interface{}) {
	fmt.Fprintln(s.Stderr, s.Color.Sprintf(ColorBoldRed, format, a...))
}

// Greet prints the start-up banner.
func (s *Shell) Greet() {
	fmt.Fprintf(s.Stdout, "cash: Can't Afford a SHell, version %s\n", Version)
	fmt.Fprintln(s.Stdout, `type "help" for more information.`)
}

// Chdir changes the working directory and keeps $PWD in sync.
func (s *Shell) Chdir(dir string) error {
	if err := os.Chdir(dir); err != nil {
		return err
	}
	if wd, err := os.Getwd(); err == nil {
		return s.Env.Setenv(EnvPWD, wd)
	}
	return nil
}

// Complete returns the builtin and alias names that start with word.
func (s *Shell) Complete(word string) []string {
	seen := make(map[string]bool)
	var candidates []string

	add := func(name string) {
		if strings.HasPrefix(name, word) && !seen[name] {
			seen[name] = true
			candidates = append(candidates, name)
		}
	}

	for _, b := range builtins {
		add(b.Name)
	}
	for _, name := range s.Aliases.Names() {
		add(name)
	}

	return candidates
}

// Run reads and executes lines until the input ends or a builtin asks to quit.
func (s *Shell) Run(in *editor.Input) error {
	for !s.Quit {
		line, err := s.Editor.ReadLine(in)
		switch {
		case errors.Is(err, editor.ErrEOF):
			return nil
		case err != nil:
			return err
		case strings.TrimSpace(line) == "":
			continue
		}

		s.History.Append(line)
		s.RunLine(line)
	}

	return nil
}

// RunLine tokenizes and executes a single line of input.
func (s *Shell) RunLine(line string) int {
	args, err := shell.Tokenize(line, shell.DefaultDelimiter)
	if err != nil {
		s.PrintError("cash: %v", err)
		s.record(&logger.SyntaxError{Line: line, ErrorMessage: err.Error()})
		s.lastStatus = 1
		return s.lastStatus
	}

	return s.Execute(args)
}

// Execute expands and runs an already tokenized command.
func (s *Shell) Execute(args []string) int {
	if len(args) == 0 {
		return s.lastStatus
	}

	expanded, err := shell.ExpandAlias(args, s.Aliases)
	if err != nil {
		s.PrintError("cash: alias %s: %v", args[0], err)
		s.record(&logger.SyntaxError{Line: shell.Join(args, shell.DefaultDelimiter), ErrorMessage: err.Error()})
		s.lastStatus = 1
		return s.lastStatus
	}
	args = shell.ExpandVariables(expanded, s.Env.Getenv)
	if len(args) == 0 {
		// An alias with an empty value.
		return s.lastStatus
	}

	if b, ok := LookupBuiltin(args[0]); ok {
		s.lastStatus = s.runBuiltin(b, args)
		s.record(&logger.RunCommand{Command: args, Builtin: true, Status: s.lastStatus})
		return s.lastStatus
	}

	status, err := s.Executor.Run(args)
	s.lastStatus = status

	var launchErr *jobctl.LaunchError
	switch {
	case errors.As(err, &launchErr):
		s.PrintError("cash: %v", launchErr)
		s.record(&logger.UnknownCommand{Command: args, Status: status, ErrorMessage: launchErr.Error()})
	case err != nil:
		s.PrintError("cash: %v", err)
		s.record(&logger.RunCommand{Command: args, Status: status})
	default:
		s.record(&logger.RunCommand{Command: args, Status: status})
	}

	return s.lastStatus
}

func (s *Shell) runBuiltin(b Builtin, args []string) (status int) {
	defer func() {
		if r := recover(); r != nil {
			s.PrintError("%s: internal error: %v", b.Name, r)
			s.record(&logger.Panic{
				Context:    "builtin " + b.Name,
				Stacktrace: string(debug.Stack()),
			})
			status = 1
		}
	}()

	return b.Cmd.Main(s, args)
}

func (s *Shell) record(event logger.LogType) {
	if err := s.Events.Record(event); err != nil {
		fmt.Fprintf(s.Stderr, "cash: couldn't record event: %v\n", err)
	}
}

func (s *Shell) recordJobUpdate(index int, job jobctl.Job) {
	status, _ := job.Status.MarshalText()
	s.record(&logger.JobUpdate{
		Index:   index,
		PID:     job.PID,
		Command: job.Command,
		Status:  string(status),
	})
}
