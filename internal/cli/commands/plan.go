package commands

import (
	"context"
	"fmt"

	"github.com/pirakansa/lbkit/internal/build"
	clirecipe "github.com/pirakansa/lbkit/internal/cli/recipe"
	"github.com/pirakansa/lbkit/internal/cli/shared"
	"github.com/pirakansa/lbkit/internal/fetch"
	"github.com/pirakansa/lbkit/internal/writer"
	"github.com/pirakansa/lbkit/pkg/target"
	"github.com/spf13/cobra"
)

func newPlanCmd(ctx *appContext) *cobra.Command {
	opts := buildCommandOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what build would write without touching the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, baseDir, err := clirecipe.Load(cmd.Context(), ctx.recipePath)
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}
			buildOpts := buildOptions(ctx, rc, baseDir, cmd, opts)
			targets, err := clirecipe.NewResolver(baseDir, fetch.New(ctx.logger), ctx.logger).Targets(rc)
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}
			return printPlan(cmd, ctx, targets, buildOpts)
		},
	}
	cmd.Flags().StringVar(&opts.buildDir, "build-dir", "", "build directory (default: recipe build.dir or /tmp/iso)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "keep the existing build directory instead of starting fresh")
	cmd.Flags().BoolVar(&opts.skipBuild, "skip-build", false, "stop after writing the build directory")
	return cmd
}

func printPlan(cmd *cobra.Command, ctx *appContext, targets []target.Target, opts build.Options) error {
	d := writer.NewDispatcher(ctx.logger)
	var hooks []target.Target
	for _, kind := range writer.BuildKinds {
		kind := kind
		d.Register(kind, writer.HandlerFunc(func(_ context.Context, group []target.Target) error {
			if kind == target.KindHookScript {
				hooks = group
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d\n", kind, len(group))
			return nil
		}))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "build dir: %s (fresh=%t, skip build=%t)\n", opts.BuildDir, opts.FreshBuild, opts.SkipBuild)
	fmt.Fprintf(out, "image: %s (%s)\n", opts.ImageName, opts.Distribution)
	if err := d.Dispatch(cmd.Context(), targets); err != nil {
		return err
	}
	for _, path := range writer.HookPaths(hooks) {
		fmt.Fprintf(out, "hook: %s\n", path)
	}
	return nil
}
