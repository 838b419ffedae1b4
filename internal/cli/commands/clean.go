package commands

import (
	"os"

	clirecipe "github.com/pirakansa/lbkit/internal/cli/recipe"
	"github.com/pirakansa/lbkit/internal/cli/shared"
	"github.com/pirakansa/lbkit/internal/lb"
	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"github.com/spf13/cobra"
)

func newCleanCmd(ctx *appContext) *cobra.Command {
	var buildDir string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run lb clean in the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cleanBuildDir(cmd, ctx, buildDir)
			if err != nil {
				return err
			}
			live := lb.New(ctx.settings.LBCommand, ctx.newRunner(ctx.logger), ctx.logger)
			return live.Run(cmd.Context(), lb.OpClean, dir)
		},
	}
	cmd.Flags().StringVar(&buildDir, "build-dir", "", "build directory (default: recipe build.dir or /tmp/iso)")
	return cmd
}

// cleanBuildDir picks the flag, then the recipe if one exists, then the
// default build directory.
func cleanBuildDir(cmd *cobra.Command, ctx *appContext, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if !pkgrecipe.IsRemoteLocation(ctx.recipePath) {
		if _, err := os.Stat(ctx.recipePath); os.IsNotExist(err) {
			return lb.DefaultBuildDir, nil
		}
	}
	rc, _, err := clirecipe.Load(cmd.Context(), ctx.recipePath)
	if err != nil {
		return "", newExitCodeError(shared.ExitConfigError, err)
	}
	if rc.Build.Dir != "" {
		return rc.Build.Dir, nil
	}
	return lb.DefaultBuildDir, nil
}
