package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// Builtin is a command the shell runs itself rather than starting a program.
type Builtin struct {
	Name        string
	Description string
	Cmd         ShellBuiltin
}

// builtins is in the order help lists them.
var builtins []Builtin

func init() {
	builtins = []Builtin{
		{"help", "shows this message.", ShellBuiltinFunc(Help)},
		{"cd", "changes directory.", ShellBuiltinFunc(Cd)},
		{"exit", "exits the shell program.", ShellBuiltinFunc(Exit)},
		{"history", "shows history commands", ShellBuiltinFunc(History)},
		{"echo", "displays text", ShellBuiltinFunc(Echo)},
		{"clear", "clears the terminal screen", ShellBuiltinFunc(Clear)},
		{"alias", "creates, lists or removes aliases", ShellBuiltinFunc(Alias)},
		{"jobs", "lists background jobs", ShellBuiltinFunc(Jobs)},
		{"export", "sets environment variables", ShellBuiltinFunc(Export)},
		{"fg", "brings job to foreground", ShellBuiltinFunc(Fg)},
		{"bg", "continues job in background", ShellBuiltinFunc(Bg)},
	}
}

// ListBuiltins returns every builtin in display order.
func ListBuiltins() []Builtin {
	out := make([]Builtin, len(builtins))
	copy(out, builtins)
	return out
}

// LookupBuiltin finds the builtin with exactly the given name.
func LookupBuiltin(name string) (Builtin, bool) {
	for _, b := range builtins {
		if b.Name == name {
			return b, true
		}
	}
	return Builtin{}, false
}

func printBuiltin(s *Shell, b Builtin) {
	fmt.Fprintf(s.Stdout, "    %s: %s\n", s.Color.Sprintf(ColorBoldMagenta, "%s", b.Name), b.Description)
}

// Help lists the builtins.
func Help(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "help [NAME]",
		Short: "Describe the builtin commands.",
	}

	return cmd.Run(s, args, func() int {
		if names := cmd.Args(); len(names) > 0 {
			status := 0
			for _, name := range names {
				b, ok := LookupBuiltin(name)
				if !ok {
					s.PrintError("help: no such builtin: %s", name)
					status = 1
					continue
				}
				printBuiltin(s, b)
			}
			return status
		}

		fmt.Fprintln(s.Stdout, "cash: Can't Afford a SHell")
		fmt.Fprintf(s.Stdout, "Version %s\n", Version)
		fmt.Fprintln(s.Stdout, "Usage: type the command and press Enter.")
		fmt.Fprintln(s.Stdout, "Built-in commands:")
		for _, b := range builtins {
			printBuiltin(s, b)
		}
		return 0
	})
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		s.PrintError("cd: too few arguments!")
		fmt.Fprintln(s.Stderr, "Usage: cd dest_dir")
		return 1
	case 2:
		if err := s.Chdir(args[1]); err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				err = fmt.Errorf("%s: %w", pathErr.Path, pathErr.Err)
			}
			s.PrintError("%s: %v", args[0], err)
			return 1
		}
	default:
		s.PrintError("%s: too many arguments!", args[0])
		return 1
	}
	return 0
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	fmt.Fprintln(s.Stdout, "cash: Exiting...")
	s.Quit = true
	return 0
}

func History(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "history",
		Short: "Display the history list.",
	}
	clear := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(s, args, func() int {
		if *clear {
			s.PrintError("history: history can't be cleared")
			return 1
		}

		for i, line := range s.History.Lines() {
			fmt.Fprintf(s.Stdout, "%3d %s\n", i+1, line)
		}
		return 0
	})
}

// Echo writes its arguments separated by spaces. It takes no flags.
func Echo(s *Shell, args []string) int {
	fmt.Fprintln(s.Stdout, strings.Join(args[1:], " "))
	return 0
}

func Clear(s *Shell, args []string) int {
	fmt.Fprint(s.Stdout, "\033[2J\033[1;1H")
	return 0
}

// trimQuotes removes one pair of matching quotes surrounding value.
func trimQuotes(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '\'' || first == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// Alias lists, defines and removes aliases.
func Alias(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "alias [-r NAME] [NAME=VALUE]",
		Short: "Define or display aliases.",
	}
	var remove string
	removeOpt := cmd.Flags().FlagLong(&remove, "remove", 'r', "remove the alias NAME", "NAME")

	return cmd.Run(s, args, func() int {
		if removeOpt.Seen() {
			if s.Aliases.Remove(remove) {
				fmt.Fprintf(s.Stdout, "Alias '%s' removed\n", remove)
				return 0
			}
			s.PrintError("No such alias: %s", remove)
			return 1
		}

		if len(cmd.Args()) == 0 {
			names := s.Aliases.Names()
			if len(names) == 0 {
				fmt.Fprintln(s.Stdout, "No aliases defined")
			}
			for _, name := range names {
				value, _ := s.Aliases.Get(name)
				fmt.Fprintf(s.Stdout, "alias %s='%s'\n", name, value)
			}
			return 0
		}

		// Unquoted values are split into several arguments by the tokenizer.
		definition := strings.Join(cmd.Args(), " ")
		name, value, ok := strings.Cut(definition, "=")
		if !ok || name == "" {
			s.PrintError("Invalid alias syntax: %s", definition)
			fmt.Fprintln(s.Stderr, "Usage: alias name=value")
			return 1
		}

		s.Aliases.Set(name, trimQuotes(value))
		return 0
	})
}

// Jobs reconciles and lists the jobs that haven't finished.
func Jobs(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "jobs [-l]",
		Short: "Display status of jobs.",
	}
	long := cmd.Flags().Bool('l', "also list process group IDs")

	return cmd.Run(s, args, func() int {
		s.Executor.Reconcile()

		active := s.Executor.Jobs.Active()
		if len(active) == 0 {
			fmt.Fprintln(s.Stdout, "No active jobs")
			return 0
		}

		for _, entry := range active {
			job := entry.Job
			if *long {
				fmt.Fprintf(s.Stdout, "[%d] %-11s%d %d %s\n", entry.Index, job.Status, job.PID, job.PGID, job.Command)
			} else {
				fmt.Fprintf(s.Stdout, "[%d] %-11s%d %s\n", entry.Index, job.Status, job.PID, job.Command)
			}
		}
		return 0
	})
}

// Export sets environment variables for the shell and the programs it starts.
// With no arguments it prints the environment.
func Export(s *Shell, args []string) int {
	if len(args) == 1 {
		environ := s.Env.Environ()
		sort.Strings(environ)
		for _, kv := range environ {
			fmt.Fprintln(s.Stdout, kv)
		}
		return 0
	}

	for _, definition := range args[1:] {
		name, value, ok := strings.Cut(definition, "=")
		if !ok || name == "" {
			s.PrintError("Invalid export syntax: %s", definition)
			fmt.Fprintln(s.Stderr, "Usage: export NAME=VALUE")
			return 1
		}

		if err := s.Env.Setenv(name, trimQuotes(value)); err != nil {
			s.PrintError("export: %v", err)
			return 1
		}
	}
	return 0
}

func jobSpec(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Fg resumes a job in the foreground.
func Fg(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "fg [%JOB]",
		Short: "Move a job to the foreground, the default is job 1.",
	}

	return cmd.Run(s, args, func() int {
		status, err := s.Executor.Foreground(jobSpec(cmd.Args()))
		if err != nil {
			s.PrintError("fg: %v", err)
		}
		return status
	})
}

// Bg resumes a stopped job in the background.
func Bg(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "bg [%JOB]",
		Short: "Resume a stopped job in the background, the default is the most recently stopped job.",
	}

	return cmd.Run(s, args, func() int {
		status, err := s.Executor.Background(jobSpec(cmd.Args()))
		if err != nil {
			s.PrintError("bg: %v", err)
		}
		return status
	})
}
