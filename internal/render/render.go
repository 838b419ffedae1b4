package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Vars are template bindings. Templates referencing a key that is not bound
// fail to render.
type Vars map[string]any

// maxIncludeDepth stops templates that include each other.
const maxIncludeDepth = 16

// loader reads the template named name. Names passed to include are
// resolved relative to the including template.
type loader func(name string) ([]byte, error)

// String renders the template file at path. Templates may call
// {{ include "other.tmpl" }} to render a sibling file with the same vars, and
// {{ shell .value }} to escape a value for an unquoted heredoc.
func String(path string, vars Vars) (string, error) {
	return render(osLoader, path, vars, 0)
}

// FS renders a template stored in fsys, typically an embed.FS.
func FS(fsys fs.FS, name string, vars Vars) (string, error) {
	return render(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	}, name, vars, 0)
}

func osLoader(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func render(load loader, name string, vars Vars, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("template %s: includes nested too deeply", name)
	}
	content, err := load(name)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	funcs := template.FuncMap{
		"shell": EscapeShell,
		"include": func(other string) (string, error) {
			return render(load, siblingPath(name, other), vars, depth+1)
		},
	}
	return execute(name, content, vars, funcs)
}

func siblingPath(name, other string) string {
	if filepath.IsAbs(other) {
		return other
	}
	return filepath.Join(filepath.Dir(name), other)
}

func execute(name string, content []byte, vars Vars, funcs template.FuncMap) (string, error) {
	tmpl, err := template.New(filepath.Base(name)).
		Option("missingkey=error").
		Funcs(funcs).
		Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	if vars == nil {
		vars = Vars{}
	}
	buf := bytes.NewBuffer(nil)
	if err := tmpl.Execute(buf, map[string]any(vars)); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// ToFile renders the template at path into target and returns the written
// path. An empty target writes to a new temporary file.
func ToFile(path, target string, vars Vars) (string, error) {
	rendered, err := String(path, vars)
	if err != nil {
		return "", err
	}
	return writeRendered(rendered, target, 0o644)
}

func writeRendered(content, target string, perm os.FileMode) (string, error) {
	if target == "" {
		tmp, err := os.CreateTemp("", "lbkit-render-*")
		if err != nil {
			return "", err
		}
		defer tmp.Close()
		if _, err := tmp.WriteString(content); err != nil {
			return "", err
		}
		return tmp.Name(), nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, []byte(content), perm); err != nil {
		return "", err
	}
	return target, nil
}

// FSToFile renders an fsys template into target with the given mode.
func FSToFile(fsys fs.FS, name, target string, vars Vars, perm os.FileMode) (string, error) {
	rendered, err := FS(fsys, name, vars)
	if err != nil {
		return "", err
	}
	path, err := writeRendered(rendered, target, perm)
	if err != nil {
		return "", err
	}
	// WriteFile keeps the mode of an existing file
	return path, os.Chmod(path, perm)
}

// EscapeShell escapes backslashes, dollar signs and backquotes so s survives
// being written through an unquoted shell heredoc or a double-quoted word.
func EscapeShell(s string) string {
	return shellEscaper.Replace(s)
}

var shellEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, "`", "\\`")
