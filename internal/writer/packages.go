package writer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

// PackagesWriter appends upstream package sets to package list files.
type PackagesWriter struct {
	dir    string
	logger *logs.Logger
}

func NewPackagesWriter(buildDir string, logger *logs.Logger) *PackagesWriter {
	return &PackagesWriter{dir: filepath.Join(buildDir, lb.PackageListDir), logger: logger}
}

// PackageListName returns the list filename for a package set.
func PackageListName(code string, liveOnly bool) string {
	if liveOnly {
		return code + ".list.chroot_live"
	}
	return code + ".list.chroot"
}

func (w *PackagesWriter) Handle(_ context.Context, targets []target.Target) error {
	w.logger.Info("writing upstream packages")
	for _, t := range targets {
		pkgs, ok := t.(target.UpstreamPackages)
		if !ok {
			return unexpectedTarget(target.KindUpstreamPackages, t)
		}
		if err := w.write(pkgs); err != nil {
			return err
		}
	}
	w.logger.Info("all upstream packages saved")
	return nil
}

func (w *PackagesWriter) write(pkgs target.UpstreamPackages) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, PackageListName(pkgs.Code, pkgs.LiveOnly))
	w.logger.Info("writing package set", "code", pkgs.Code, "path", path)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	if pkgs.Priority != target.PriorityUnset {
		fmt.Fprintf(buf, "! Packages Priority %s\n\n", pkgs.Priority)
	}
	for _, name := range pkgs.Packages {
		fmt.Fprintf(buf, "%s\n", name)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func unexpectedTarget(want target.Kind, got target.Target) error {
	return fmt.Errorf("%s handler received %T", want, got)
}
