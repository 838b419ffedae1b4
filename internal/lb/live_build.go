package lb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
)

// Operation is an lb subcommand.
type Operation string

const (
	OpBuild  Operation = "build"
	OpClean  Operation = "clean"
	OpConfig Operation = "config"
)

// LiveBuild invokes the lb tool through a Runner.
type LiveBuild struct {
	// Command is the lb invocation, e.g. ["/usr/bin/lb"] or ["sudo", "lb"].
	Command []string
	Runner  runner.Runner
	Logger  *logs.Logger
}

func New(command []string, r runner.Runner, logger *logs.Logger) *LiveBuild {
	if len(command) == 0 {
		command = []string{DefaultLiveBuildBinary}
	}
	return &LiveBuild{Command: command, Runner: r, Logger: logger}
}

// Run executes `lb <op>` with buildDir as the working directory.
func (l *LiveBuild) Run(ctx context.Context, op Operation, buildDir string) error {
	argv := append(append([]string(nil), l.Command...), string(op))
	l.Logger.Info("running lb", "operation", op, "dir", buildDir)
	if err := l.Runner.Run(ctx, argv, buildDir); err != nil {
		return fmt.Errorf("lb %s: %w", op, err)
	}
	l.Logger.Info("lb finished", "operation", op, "dir", buildDir)
	return nil
}

// RemoveBuildDir deletes buildDir recursively. A missing directory is not an
// error.
func RemoveBuildDir(buildDir string, logger *logs.Logger) error {
	if cleaned := filepath.Clean(buildDir); buildDir == "" || cleaned == "/" || cleaned == "." {
		return fmt.Errorf("refusing to remove build dir %q", buildDir)
	}
	logger.Info("removing build dir", "dir", buildDir)
	if err := os.RemoveAll(buildDir); err != nil {
		return fmt.Errorf("remove build dir %s: %w", buildDir, err)
	}
	return nil
}
