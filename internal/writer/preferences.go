package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/pkg/target"
)

// PreferencesWriter appends apt pin stanzas to the build time or run time
// preferences file.
type PreferencesWriter struct {
	buildTimeFile string
	runTimeFile   string
	logger        *logs.Logger
}

func NewPreferencesWriter(buildDir string, logger *logs.Logger) *PreferencesWriter {
	return &PreferencesWriter{
		buildTimeFile: filepath.Join(buildDir, lb.BuildTimeAptPreferenceFile),
		runTimeFile:   filepath.Join(buildDir, lb.RunTimeAptPreferenceFile),
		logger:        logger,
	}
}

func (w *PreferencesWriter) Handle(_ context.Context, targets []target.Target) error {
	w.logger.Info("writing apt preferences")
	for _, t := range targets {
		pref, ok := t.(target.AptPreference)
		if !ok {
			return unexpectedTarget(target.KindAptPreference, t)
		}
		if err := w.write(pref); err != nil {
			return err
		}
	}
	w.logger.Info("all apt preferences saved")
	return nil
}

func (w *PreferencesWriter) fileFor(t target.AptPreferenceType) (string, error) {
	switch t {
	case target.BuildTime:
		return w.buildTimeFile, nil
	case target.RunTime:
		return w.runTimeFile, nil
	default:
		return "", fmt.Errorf("unknown apt preference type %q", t)
	}
}

func (w *PreferencesWriter) write(pref target.AptPreference) error {
	path, err := w.fileFor(pref.Type)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	w.logger.Info("writing apt preference", "package", pref.Package, "type", pref.Type, "path", path)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "Package: %s\nPin: %s\nPin-Priority: %d\n\n", pref.Package, pref.Pin, pref.PinPriority)
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
