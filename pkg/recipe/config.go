package recipe

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pirakansa/lbkit/internal/fetch"
	"github.com/pirakansa/lbkit/pkg/target"
)

const (
	DefaultVersion  = 1
	DefaultFileName = "lbkit.yaml"
)

const (
	EncodingZstd    = "zstd"
	EncodingTarGzip = "tar+gzip"
	EncodingTarXz   = "tar+xz"
)

func Normalize(r *Recipe) {
	if r.Version == 0 {
		r.Version = DefaultVersion
	}
	if r.Sources == nil {
		r.Sources = map[string]Source{}
	}
	for id, src := range r.Sources {
		src.URL = strings.TrimSpace(src.URL)
		src.Checksum = normalizeDigest(src.Checksum)
		src.Encoding = strings.TrimSpace(strings.ToLower(src.Encoding))
		r.Sources[id] = src
	}
	if r.Build.Fresh == nil {
		fresh := true
		r.Build.Fresh = &fresh
	}
}

// FreshBuild reports whether the build directory is removed first.
func (r *Recipe) FreshBuild() bool {
	return r.Build.Fresh == nil || *r.Build.Fresh
}

func IsRemoteLocation(value string) bool {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func Validate(r *Recipe) error {
	if r.Version != DefaultVersion {
		return fmt.Errorf("unsupported recipe version %d", r.Version)
	}
	for name, tmpl := range r.Build.Auto {
		switch name {
		case "config", "build", "clean":
		default:
			return fmt.Errorf("build.auto.%s is not an auto script", name)
		}
		if strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("build.auto.%s template is required", name)
		}
	}
	for id, src := range r.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %q url is required", id)
		}
		if !IsRemoteLocation(src.URL) {
			return fmt.Errorf("source %q url must be http or https", id)
		}
		if !validEncoding(src.Encoding) {
			return fmt.Errorf("source %q encoding %q is not supported", id, src.Encoding)
		}
		if src.Extract != "" && (src.Encoding == "" || src.Encoding == EncodingZstd) {
			return fmt.Errorf("source %q extract requires an archive encoding", id)
		}
		if _, _, err := fetch.ParseChecksum(src.Checksum); err != nil {
			return fmt.Errorf("source %q: %w", id, err)
		}
	}
	for i, set := range r.Packages {
		if strings.TrimSpace(set.Code) == "" {
			return fmt.Errorf("packages[%d].code is required", i)
		}
		if strings.ContainsRune(set.Code, '/') {
			return fmt.Errorf("packages[%d].code %q must not contain '/'", i, set.Code)
		}
		if _, err := target.ParsePackagePriority(set.Priority); err != nil {
			return fmt.Errorf("packages[%d]: %w", i, err)
		}
	}
	for i, deb := range r.Debs {
		if err := validateRef(r, deb.FileRef, fmt.Sprintf("debs[%d]", i)); err != nil {
			return err
		}
	}
	for i, hook := range r.Hooks {
		if strings.TrimSpace(hook.Name) == "" {
			return fmt.Errorf("hooks[%d].name is required", i)
		}
		if strings.ContainsRune(hook.Name, '/') {
			return fmt.Errorf("hooks[%d].name %q must not contain '/'", i, hook.Name)
		}
		if err := validateRef(r, hook.FileRef, fmt.Sprintf("hooks[%d]", i)); err != nil {
			return err
		}
	}
	for i, file := range r.Files {
		if strings.TrimSpace(file.Target) == "" {
			return fmt.Errorf("files[%d].target is required", i)
		}
		if err := validateRef(r, file.FileRef, fmt.Sprintf("files[%d]", i)); err != nil {
			return err
		}
	}
	for i, pref := range r.Preferences {
		if pref.Package == "" || pref.Pin == "" {
			return fmt.Errorf("preferences[%d] needs package and pin", i)
		}
		if _, err := target.ParseAptPreferenceType(pref.Type); err != nil {
			return fmt.Errorf("preferences[%d]: %w", i, err)
		}
	}
	for i, cfg := range r.Configs {
		if strings.TrimSpace(cfg.Target) == "" {
			return fmt.Errorf("configs[%d].target is required", i)
		}
		if err := validateRef(r, cfg.FileRef, fmt.Sprintf("configs[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateRef(r *Recipe, ref FileRef, field string) error {
	set := 0
	for _, v := range []string{ref.Path, ref.Source, ref.Template} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%s must set exactly one of path, source or template", field)
	}
	if ref.Source != "" {
		if _, ok := r.Sources[ref.Source]; !ok {
			return fmt.Errorf("%s.source %q not found in sources", field, ref.Source)
		}
	}
	if len(ref.Vars) > 0 && ref.Template == "" {
		return fmt.Errorf("%s.vars requires template", field)
	}
	return nil
}

func validEncoding(encoding string) bool {
	switch encoding {
	case "", EncodingZstd, EncodingTarGzip, EncodingTarXz:
		return true
	default:
		return false
	}
}

func normalizeDigest(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
