package recipe

// Recipe is the declarative build description in lbkit.yaml.
type Recipe struct {
	Version     int               `yaml:"version"`
	Image       Image             `yaml:"image"`
	Build       Build             `yaml:"build"`
	Sources     map[string]Source `yaml:"sources"`
	Packages    []PackageSet      `yaml:"packages"`
	Debs        []Deb             `yaml:"debs"`
	Hooks       []Hook            `yaml:"hooks"`
	Files       []File            `yaml:"files"`
	Preferences []Preference      `yaml:"preferences"`
	Configs     []Config          `yaml:"configs"`
}

// Image names the produced image.
type Image struct {
	Name         string `yaml:"name"`
	Distribution string `yaml:"distribution"`
}

// Build holds build directory settings. Fresh defaults to true. Auto maps
// an auto script name (config, build, clean) to a template replacing it.
type Build struct {
	Dir   string            `yaml:"dir"`
	Fresh *bool             `yaml:"fresh"`
	Skip  bool              `yaml:"skip"`
	Auto  map[string]string `yaml:"auto"`
}

// Source defines a downloadable resource referenced by name.
type Source struct {
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	Checksum string            `yaml:"checksum"`
	Encoding string            `yaml:"encoding"`
	Extract  string            `yaml:"extract"`
}

// FileRef points at content by exactly one of a local path, a named source
// or a template.
type FileRef struct {
	Path     string         `yaml:"path"`
	Source   string         `yaml:"source"`
	Template string         `yaml:"template"`
	Vars     map[string]any `yaml:"vars"`
}

// PackageSet is one package list.
type PackageSet struct {
	Code     string   `yaml:"code"`
	Packages []string `yaml:"packages"`
	LiveOnly bool     `yaml:"live_only"`
	Priority string   `yaml:"priority"`
}

type Deb struct {
	FileRef `yaml:",inline"`
}

type Hook struct {
	Name     string `yaml:"name"`
	LiveOnly bool   `yaml:"live_only"`
	FileRef  `yaml:",inline"`
}

// File is placed in the image filesystem, or on the medium when Binary.
type File struct {
	Target  string `yaml:"target"`
	Binary  bool   `yaml:"binary"`
	FileRef `yaml:",inline"`
}

type Preference struct {
	Package     string `yaml:"package"`
	Pin         string `yaml:"pin"`
	PinPriority int    `yaml:"pin_priority"`
	Type        string `yaml:"type"`
}

// Config is copied to a path relative to the build directory.
type Config struct {
	Target  string `yaml:"target"`
	FileRef `yaml:",inline"`
}
