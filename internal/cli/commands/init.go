package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pirakansa/lbkit/internal/cli/shared"
	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"github.com/spf13/cobra"
)

func newInitCmd(ctx *appContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter lbkit.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.recipePath
			if pkgrecipe.IsRemoteLocation(path) {
				return newExitCodeError(shared.ExitConfigError, fmt.Errorf("cannot initialize remote recipe %s", path))
			}
			if force {
				backup, err := shared.BackupFile(path, time.Now())
				if err != nil {
					return err
				}
				if backup != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "backup:", backup)
				}
				return writeRecipe(path, recipeTemplate(), true)
			}
			if err := writeRecipe(path, recipeTemplate(), false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "initialized:", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing recipe after a timestamped backup")
	return cmd
}

func writeRecipe(path, content string, overwrite bool) error {
	if !overwrite {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func recipeTemplate() string {
	return `version: 1
image:
  name: myos
  distribution: trixie
build:
  dir: /tmp/iso
  fresh: true
  skip: false
sources: {}
#  kernel:
#    url: https://example.com/linux-image.deb.zst
#    checksum: blake3:<hex>
#    encoding: zstd
packages:
  - code: base
    packages: [linux-image-amd64, live-boot, systemd-sysv]
  - code: live
    live_only: true
    priority: optional
    packages: [live-config]
debs: []
hooks: []
#  - name: motd
#    path: hooks/motd.sh
files: []
#  - target: /etc/motd
#    template: files/motd.tmpl
#    vars: {host: myos}
preferences: []
#  - package: "*"
#    pin: release n=trixie-backports
#    pin_priority: 100
#    type: build_time
configs: []
`
}
