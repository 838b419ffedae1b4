package recipe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pirakansa/lbkit/internal/fetch"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/pirakansa/lbkit/internal/render"
	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"github.com/pirakansa/lbkit/pkg/target"
)

// Resolver turns a recipe into targets. Remote sources and templates are
// only produced when a writer asks for them; each named source is
// downloaded at most once.
type Resolver struct {
	baseDir string
	sources map[string]pkgrecipe.Source
	fetcher *fetch.Fetcher
	logger  *logs.Logger
	fetched map[string]string
}

func NewResolver(baseDir string, fetcher *fetch.Fetcher, logger *logs.Logger) *Resolver {
	return &Resolver{
		baseDir: baseDir,
		fetcher: fetcher,
		logger:  logger,
		fetched: map[string]string{},
	}
}

// Targets returns one group per recipe section, in the order the sections
// are declared in Recipe.
func (r *Resolver) Targets(rc *pkgrecipe.Recipe) ([]target.Target, error) {
	r.sources = rc.Sources

	packages := make(target.Group, 0, len(rc.Packages))
	for i, set := range rc.Packages {
		priority, err := target.ParsePackagePriority(set.Priority)
		if err != nil {
			return nil, fmt.Errorf("packages[%d]: %w", i, err)
		}
		packages = append(packages, target.UpstreamPackages{
			Packages: append([]string(nil), set.Packages...),
			Code:     set.Code,
			LiveOnly: set.LiveOnly,
			Priority: priority,
		})
	}

	debs := make(target.Group, 0, len(rc.Debs))
	for _, deb := range rc.Debs {
		debs = append(debs, target.CustomDeb{Deb: r.source(deb.FileRef)})
	}

	hooks := make(target.Group, 0, len(rc.Hooks))
	for _, hook := range rc.Hooks {
		hooks = append(hooks, target.HookScript{
			Script:   r.source(hook.FileRef),
			Name:     hook.Name,
			LiveOnly: hook.LiveOnly,
		})
	}

	files := make(target.Group, 0, len(rc.Files))
	for _, file := range rc.Files {
		files = append(files, target.StaticFile{
			Path:   file.Target,
			Source: r.source(file.FileRef),
			Binary: file.Binary,
		})
	}

	prefs := make(target.Group, 0, len(rc.Preferences))
	for i, pref := range rc.Preferences {
		kind, err := target.ParseAptPreferenceType(pref.Type)
		if err != nil {
			return nil, fmt.Errorf("preferences[%d]: %w", i, err)
		}
		prefs = append(prefs, target.AptPreference{
			Package:     pref.Package,
			Pin:         pref.Pin,
			PinPriority: pref.PinPriority,
			Type:        kind,
		})
	}

	configs := make(target.Group, 0, len(rc.Configs))
	for _, cfg := range rc.Configs {
		configs = append(configs, target.DirectConfig{
			Path:   cfg.Target,
			Source: r.source(cfg.FileRef),
		})
	}

	return []target.Target{packages, debs, hooks, files, prefs, configs}, nil
}

func (r *Resolver) source(ref pkgrecipe.FileRef) target.Source {
	switch {
	case ref.Template != "":
		tmpl := r.localPath(ref.Template)
		vars := render.Vars(ref.Vars)
		return target.SourceFunc(func(context.Context) (string, error) {
			r.logger.Debug("rendering template", "template", tmpl)
			return render.ToFile(tmpl, "", vars)
		})
	case ref.Source != "":
		id := ref.Source
		return target.SourceFunc(func(ctx context.Context) (string, error) {
			return r.fetch(ctx, id)
		})
	default:
		return target.Path(r.localPath(ref.Path))
	}
}

func (r *Resolver) localPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

func (r *Resolver) fetch(ctx context.Context, id string) (string, error) {
	if path, ok := r.fetched[id]; ok {
		return path, nil
	}
	src, ok := r.sources[id]
	if !ok {
		return "", fmt.Errorf("source %q not found in sources", id)
	}

	fetcher := *r.fetcher
	fetcher.Headers = src.Headers
	downloaded, err := fetcher.Download(ctx, src.URL)
	if err != nil {
		return "", fmt.Errorf("source %q: %w", id, err)
	}
	if err := fetch.Verify(downloaded, src.Checksum); err != nil {
		return "", fmt.Errorf("source %q: %w", id, err)
	}
	path, err := fetch.Unpack(downloaded, src.Encoding, src.Extract)
	if err != nil {
		return "", fmt.Errorf("source %q: %w", id, err)
	}
	r.logger.Info("source ready", "source", id, "path", path)
	r.fetched[id] = path
	return path, nil
}
