package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pirakansa/lbkit/internal/logs"
)

// maxLineSize bounds one line of child output; lb prints long debootstrap lines.
const maxLineSize = 1024 * 1024

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, argv []string, dir string) error
}

// ProcessError reports a command that exited non-zero or could not start.
type ProcessError struct {
	Argv     []string
	Dir      string
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Exec runs commands on the host and logs their merged stdout and stderr
// line by line.
type Exec struct {
	Logger *logs.Logger
}

func NewExec(logger *logs.Logger) *Exec {
	return &Exec{Logger: logger}
}

func (r *Exec) Run(ctx context.Context, argv []string, dir string) error {
	if len(argv) == 0 {
		return errors.New("no command specified")
	}
	cmdLine := strings.Join(argv, " ")
	logger := r.Logger.With("cmd", argv[0])
	logger.Info("executing command", "command", cmdLine, "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return &ProcessError{Argv: argv, Dir: dir, ExitCode: -1, Err: err}
	}

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		logger.Info(scanner.Text())
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// keep the child from blocking on a full pipe
		_, _ = io.Copy(io.Discard, out)
	}

	waitErr := cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()
	logger.Info("command finished", "command", cmdLine, "exit_code", exitCode)

	if waitErr != nil {
		return &ProcessError{Argv: argv, Dir: dir, ExitCode: exitCode, Err: waitErr}
	}
	if scanErr != nil {
		return fmt.Errorf("read output of %q: %w", cmdLine, scanErr)
	}
	return nil
}
