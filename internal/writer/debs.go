package writer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/pkg/target"
)

// DebWriter drops custom .deb files into the chroot package pool and lets
// dpkg-name fix their filenames.
type DebWriter struct {
	dir      string
	dpkgName []string
	runner   runner.Runner
	logger   *logs.Logger
}

// NewDebWriter creates a DebWriter. dpkgName is the dpkg-name invocation and
// defaults to lb.DefaultDpkgNameBinary.
func NewDebWriter(buildDir string, dpkgName []string, r runner.Runner, logger *logs.Logger) *DebWriter {
	if len(dpkgName) == 0 {
		dpkgName = []string{lb.DefaultDpkgNameBinary}
	}
	return &DebWriter{
		dir:      filepath.Join(buildDir, lb.ChrootDebDir),
		dpkgName: dpkgName,
		runner:   r,
		logger:   logger,
	}
}

func (w *DebWriter) Handle(ctx context.Context, targets []target.Target) error {
	w.logger.Info("writing custom debs")
	for _, t := range targets {
		deb, ok := t.(target.CustomDeb)
		if !ok {
			return unexpectedTarget(target.KindCustomDeb, t)
		}
		if err := w.write(ctx, deb); err != nil {
			return err
		}
	}
	w.logger.Info("all custom debs saved")
	return nil
}

func (w *DebWriter) write(ctx context.Context, deb target.CustomDeb) error {
	name, src, err := resolveSource(ctx, target.KindCustomDeb, deb.Deb)
	if err != nil {
		return err
	}
	dest := filepath.Join(w.dir, filepath.Base(name))
	w.logger.Info("copying custom deb", "source", src, "path", dest)
	if err := copyPath(src, dest); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	argv := append(append([]string(nil), w.dpkgName...), dest)
	return w.runner.Run(ctx, argv, "")
}
