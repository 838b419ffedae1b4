package writer

import (
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/runner"
	"github.com/pirakansa/lbkit/pkg/target"
)

// BuildKinds is the handler order used by NewBuildDispatcher.
var BuildKinds = []target.Kind{
	target.KindUpstreamPackages,
	target.KindCustomDeb,
	target.KindHookScript,
	target.KindStaticFile,
	target.KindAptPreference,
	target.KindDirectConfig,
}

// NewBuildDispatcher returns a dispatcher with every writer registered for
// buildDir. Package lists are written first and direct configs last.
func NewBuildDispatcher(buildDir string, dpkgName []string, r runner.Runner, logger *logs.Logger) *Dispatcher {
	d := NewDispatcher(logger)
	d.Register(target.KindUpstreamPackages, NewPackagesWriter(buildDir, logger))
	d.Register(target.KindCustomDeb, NewDebWriter(buildDir, dpkgName, r, logger))
	d.Register(target.KindHookScript, NewHookWriter(buildDir, logger))
	d.Register(target.KindStaticFile, NewStaticFileWriter(buildDir, logger))
	d.Register(target.KindAptPreference, NewPreferencesWriter(buildDir, logger))
	d.Register(target.KindDirectConfig, NewDirectConfigWriter(buildDir, logger))
	return d
}
