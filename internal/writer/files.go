package writer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

// StaticFileWriter copies files into includes.chroot, or includes.binary for
// files that belong on the image medium.
type StaticFileWriter struct {
	chrootRoot string
	binaryRoot string
	logger     *logs.Logger
}

func NewStaticFileWriter(buildDir string, logger *logs.Logger) *StaticFileWriter {
	return &StaticFileWriter{
		chrootRoot: filepath.Join(buildDir, lb.ChrootIncludeDir),
		binaryRoot: filepath.Join(buildDir, lb.BinaryIncludeDir),
		logger:     logger,
	}
}

func (w *StaticFileWriter) Handle(ctx context.Context, targets []target.Target) error {
	w.logger.Info("writing static files")
	for _, t := range targets {
		file, ok := t.(target.StaticFile)
		if !ok {
			return unexpectedTarget(target.KindStaticFile, t)
		}
		root := w.chrootRoot
		if file.Binary {
			root = w.binaryRoot
		}
		if err := copyTarget(ctx, w.logger, target.KindStaticFile, root, file.Path, file.Source); err != nil {
			return err
		}
	}
	w.logger.Info("all static files saved")
	return nil
}

// DirectConfigWriter copies sources to paths relative to the build directory.
type DirectConfigWriter struct {
	root   string
	logger *logs.Logger
}

func NewDirectConfigWriter(buildDir string, logger *logs.Logger) *DirectConfigWriter {
	return &DirectConfigWriter{root: buildDir, logger: logger}
}

func (w *DirectConfigWriter) Handle(ctx context.Context, targets []target.Target) error {
	w.logger.Info("writing direct configs")
	for _, t := range targets {
		cfg, ok := t.(target.DirectConfig)
		if !ok {
			return unexpectedTarget(target.KindDirectConfig, t)
		}
		if err := copyTarget(ctx, w.logger, target.KindDirectConfig, w.root, cfg.Path, cfg.Source); err != nil {
			return err
		}
	}
	w.logger.Info("all direct configs saved")
	return nil
}

func copyTarget(ctx context.Context, logger *logs.Logger, kind target.Kind, root, path string, source target.Source) error {
	dest, err := joinUnderRoot(root, path)
	if err != nil {
		return err
	}
	_, src, err := resolveSource(ctx, kind, source)
	if err != nil {
		return err
	}
	logger.Info("copying file", "kind", kind, "source", src, "path", dest)
	if err := copyPath(src, dest); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dest, err)
	}
	return nil
}
