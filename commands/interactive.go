package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/cash/core/config"
	"github.com/josephlewis42/cash/core/editor"
	"github.com/josephlewis42/cash/core/jobctl"
	"github.com/josephlewis42/cash/core/logger"
	"github.com/josephlewis42/cash/core/terminal"
	"github.com/josephlewis42/cash/core/ttylog"
)

const sessionTitle = "cash session"

// listCloser closes everything it holds, most recently added first.
type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for i := len(lc) - 1; i >= 0; i-- {
		if err := lc[i].Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// sessionIO holds the streams the shell itself reads and writes.
type sessionIO struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// openEventLog returns the event logger configured for the session.
func openEventLog(cfg *config.Configuration, toClose *listCloser) (*logger.Logger, error) {
	if !cfg.EventLog {
		return logger.NewNopLogger(), nil
	}

	fd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, fmt.Errorf("couldn't open event log: %w", err)
	}
	*toClose = append(*toClose, fd)

	return logger.NewJsonLinesLogRecorder(fd), nil
}

// recordSession tees the session's streams into a new asciicast file.
func recordSession(cfg *config.Configuration, fd int, streams sessionIO, toClose *listCloser) (sessionIO, string, error) {
	name := fmt.Sprintf("%s.%s", time.Now().Format(time.RFC3339), ttylog.AsciicastFileExt)
	logFd, err := cfg.CreateSessionLog(name)
	if err != nil {
		return streams, "", fmt.Errorf("couldn't create session log: %w", err)
	}
	*toClose = append(*toClose, logFd)

	header := ttylog.AsciicastHeader{
		Title: sessionTitle,
		Env: map[string]string{
			"SHELL": "cash",
			"TERM":  os.Getenv("TERM"),
		},
	}
	if width, height, err := terminal.Size(fd); err == nil {
		header.Width, header.Height = width, height
	}

	recorder := ttylog.NewRecorder(ttylog.NewAsciicastLogSink(logFd, header))
	*toClose = append(*toClose, recorder)

	return sessionIO{
		stdin:  recorder.Reader(streams.stdin),
		stdout: recorder.Writer(ttylog.FDStdout, streams.stdout),
		stderr: recorder.Writer(ttylog.FDStderr, streams.stderr),
	}, name, nil
}

// RunInteractive runs a shell session on the process's terminal until the
// user exits.
func RunInteractive(cfg *config.Configuration) (err error) {
	var toClose listCloser
	defer func() {
		if closeErr := toClose.Close(); err == nil {
			err = closeErr
		}
	}()

	fd := int(os.Stdin.Fd())
	isTerminal := readline.IsTerminal(fd)
	raw := terminal.NewRawMode(fd)

	events, err := openEventLog(cfg, &toClose)
	if err != nil {
		return err
	}
	session := events.NewSession()

	streams := sessionIO{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if cfg.RecordSessions {
		var name string
		if streams, name, err = recordSession(cfg, fd, streams, &toClose); err != nil {
			return err
		}
		_ = session.Record(&logger.OpenTtyLog{Name: name})
	}

	signals := terminal.WatchSignals(func(os.Signal) {
		_ = raw.Exit()
		os.Exit(1)
	})
	defer signals.Stop()

	executor := jobctl.NewExecutor(terminal.NewController(fd))
	executor.Interrupts = signals
	executor.Out = streams.stdout

	sh := NewShell(streams.stdout, streams.stderr, executor)
	sh.Events = session
	sh.Color.Enabled = cfg.UseColor(isTerminal)
	sh.Editor.Prompt = cfg.Prompt
	sh.Editor.EscapeTimeout = time.Duration(cfg.EscapeTimeout)
	sh.Editor.PromptColor = sh.Color.Color(ColorBoldGreen)
	sh.Editor.CandidateColor = sh.Color.Color(ColorBoldCyan)
	if isTerminal {
		sh.Editor.Terminal = raw
	}

	_ = session.Record(&logger.SessionStart{Version: Version, Interactive: isTerminal})
	if cfg.Greeting {
		sh.Greet()
	}

	in := editor.NewInput(streams.stdin, signals.Interrupts())
	defer in.Close()

	return sh.Run(in)
}
