package lb

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/render"
)

//go:embed templates/auto/*
var autoScripts embed.FS

// AutoScript names one of the auto/ scripts lb picks up.
type AutoScript string

const (
	AutoScriptConfig AutoScript = "config"
	AutoScriptBuild  AutoScript = "build"
	AutoScriptClean  AutoScript = "clean"
)

// AutoScripts lists the scripts written for every build.
var AutoScripts = []AutoScript{AutoScriptConfig, AutoScriptBuild, AutoScriptClean}

// WriteAutoScript renders the builtin template for script into
// <buildDir>/auto/<script>. The config script needs the "distribution" and
// "image_name" variables.
func WriteAutoScript(buildDir string, script AutoScript, vars render.Vars, logger *logs.Logger) (string, error) {
	switch script {
	case AutoScriptConfig, AutoScriptBuild, AutoScriptClean:
	default:
		return "", fmt.Errorf("unknown auto script %q", script)
	}
	target := filepath.Join(buildDir, AutoScriptDir, string(script))
	logger.Info("writing auto script", "script", script, "path", target)
	written, err := render.FSToFile(autoScripts, path.Join("templates", "auto", string(script)), target, vars, 0o755)
	if err != nil {
		return "", fmt.Errorf("write auto script %s: %w", script, err)
	}
	return written, nil
}

// WriteCustomAutoScript renders a caller supplied template in place of the
// builtin one.
func WriteCustomAutoScript(buildDir string, script AutoScript, templatePath string, vars render.Vars, logger *logs.Logger) (string, error) {
	target := filepath.Join(buildDir, AutoScriptDir, string(script))
	logger.Info("writing auto script", "script", script, "template", templatePath, "path", target)
	if _, err := render.ToFile(templatePath, target, vars); err != nil {
		return "", fmt.Errorf("write auto script %s: %w", script, err)
	}
	return target, os.Chmod(target, 0o755)
}
