package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pirakansa/lbkit/internal/cli/settings"
	"github.com/pirakansa/lbkit/internal/cli/shared"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/internal/writer"
	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type appContext struct {
	recipePath string
	viper      *viper.Viper
	settings   *settings.Settings
	logger     *logs.Logger
	// newRunner is replaced in tests.
	newRunner func(*logs.Logger) runner.Runner
}

func newAppContext() *appContext {
	return &appContext{
		viper: settings.New(),
		newRunner: func(logger *logs.Logger) runner.Runner {
			return runner.NewExec(logger)
		},
	}
}

func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(newAppContext(), version)
}

func newRootCmd(ctx *appContext, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lbkit",
		Short: "Declarative Debian live-build image builder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Read(ctx.viper)
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}
			ctx.settings = s
			ctx.logger = s.Logger()
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&ctx.recipePath, "recipe", pkgrecipe.DefaultFileName, "path or URL of the build recipe")
	settings.RegisterFlags(ctx.viper, cmd.PersistentFlags())

	cmd.AddCommand(newBuildCmd(ctx))
	cmd.AddCommand(newPlanCmd(ctx))
	cmd.AddCommand(newCleanCmd(ctx))
	cmd.AddCommand(newInitCmd(ctx))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return mapExitCode(err)
	}
	return shared.ExitOK
}

func mapExitCode(err error) int {
	var codeErr *exitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	var procErr *runner.ProcessError
	if errors.As(err, &procErr) {
		return shared.ExitProcessFailed
	}
	var invalid *writer.InvalidTargetError
	if errors.As(err, &invalid) {
		return shared.ExitConfigError
	}
	var unknown *writer.UnrecognizedTargetError
	var missing *writer.MissingSourceError
	if errors.As(err, &unknown) || errors.As(err, &missing) {
		return shared.ExitTargetError
	}
	return shared.ExitError
}

type exitCodeError struct {
	code int
	err  error
}

func newExitCodeError(code int, err error) *exitCodeError {
	return &exitCodeError{code: code, err: err}
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}
