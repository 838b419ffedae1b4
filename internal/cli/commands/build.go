package commands

import (
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/build"
	clirecipe "github.com/pirakansa/lbkit/internal/cli/recipe"
	"github.com/pirakansa/lbkit/internal/cli/shared"
	"github.com/pirakansa/lbkit/internal/fetch"
	"github.com/pirakansa/lbkit/internal/lb"
	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"github.com/spf13/cobra"
)

type buildCommandOptions struct {
	buildDir  string
	keep      bool
	skipBuild bool
}

func newBuildCmd(ctx *appContext) *cobra.Command {
	opts := buildCommandOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the recipe into the build directory and run lb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, baseDir, err := clirecipe.Load(cmd.Context(), ctx.recipePath)
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}
			buildOpts := buildOptions(ctx, rc, baseDir, cmd, opts)

			resolver := clirecipe.NewResolver(baseDir, fetch.New(ctx.logger), ctx.logger)
			targets, err := resolver.Targets(rc)
			if err != nil {
				return newExitCodeError(shared.ExitConfigError, err)
			}

			r := ctx.newRunner(ctx.logger)
			builder := build.NewBuilder(ctx.logger, r, ctx.settings.LBCommand, ctx.settings.DpkgName)
			return builder.Build(cmd.Context(), targets, buildOpts)
		},
	}
	cmd.Flags().StringVar(&opts.buildDir, "build-dir", "", "build directory (default: recipe build.dir or /tmp/iso)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "keep the existing build directory instead of starting fresh")
	cmd.Flags().BoolVar(&opts.skipBuild, "skip-build", false, "stop after writing the build directory")
	return cmd
}

// buildOptions merges defaults, the recipe and command line flags, in that
// order of precedence from lowest to highest.
func buildOptions(ctx *appContext, rc *pkgrecipe.Recipe, baseDir string, cmd *cobra.Command, opts buildCommandOptions) build.Options {
	out := build.DefaultOptions()
	out.BootloaderDir = ctx.settings.BootloaderDir
	if rc.Image.Name != "" {
		out.ImageName = rc.Image.Name
	}
	if rc.Image.Distribution != "" {
		out.Distribution = rc.Image.Distribution
	}
	if rc.Build.Dir != "" {
		out.BuildDir = rc.Build.Dir
	}
	out.FreshBuild = rc.FreshBuild()
	out.SkipBuild = rc.Build.Skip
	if len(rc.Build.Auto) > 0 {
		out.AutoScriptTemplates = map[lb.AutoScript]string{}
		for name, tmpl := range rc.Build.Auto {
			if !filepath.IsAbs(tmpl) {
				tmpl = filepath.Join(baseDir, tmpl)
			}
			out.AutoScriptTemplates[lb.AutoScript(name)] = tmpl
		}
	}

	if opts.buildDir != "" {
		out.BuildDir = opts.buildDir
	}
	if cmd.Flags().Changed("keep") {
		out.FreshBuild = !opts.keep
	}
	if cmd.Flags().Changed("skip-build") {
		out.SkipBuild = opts.skipBuild
	}
	return out
}
