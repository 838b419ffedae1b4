package target

import "fmt"

// Kind identifies one target variant.
type Kind string

const (
	KindUpstreamPackages Kind = "upstream_packages"
	KindCustomDeb        Kind = "custom_deb"
	KindHookScript       Kind = "hook_script"
	KindStaticFile       Kind = "static_file"
	KindAptPreference    Kind = "apt_preference"
	KindDirectConfig     Kind = "direct_config"
	KindGroup            Kind = "group"
)

// Target describes one unit of build directory content.
type Target interface {
	Kind() Kind
}

// PackagePriority is written as the header of a package list file.
type PackagePriority string

const (
	PriorityRequired  PackagePriority = "required"
	PriorityImportant PackagePriority = "important"
	PriorityStandard  PackagePriority = "standard"
	PriorityOptional  PackagePriority = "optional"
	// PriorityUnset omits the header line.
	PriorityUnset PackagePriority = ""
)

func ParsePackagePriority(value string) (PackagePriority, error) {
	switch p := PackagePriority(value); p {
	case PriorityRequired, PriorityImportant, PriorityStandard, PriorityOptional, PriorityUnset:
		return p, nil
	default:
		return PriorityUnset, fmt.Errorf("unknown package priority %q", value)
	}
}

// AptPreferenceType selects whether a pin applies while building the image
// or is persisted into the installed system.
type AptPreferenceType string

const (
	BuildTime AptPreferenceType = "build_time"
	RunTime   AptPreferenceType = "run_time"
)

func ParseAptPreferenceType(value string) (AptPreferenceType, error) {
	switch t := AptPreferenceType(value); t {
	case BuildTime, RunTime:
		return t, nil
	default:
		return "", fmt.Errorf("unknown apt preference type %q", value)
	}
}

// UpstreamPackages is a set of archive packages written to one package list.
// Targets sharing a Code append to the same file.
type UpstreamPackages struct {
	Packages []string
	Code     string
	LiveOnly bool
	Priority PackagePriority
}

// CustomDeb is a local .deb dropped into the chroot package pool.
type CustomDeb struct {
	Deb Source
}

// HookScript runs inside the chroot at build time. Name is used verbatim in
// the hook filename.
type HookScript struct {
	Script   Source
	Name     string
	LiveOnly bool
}

// StaticFile is placed at Path on the built system, or on the ISO itself
// when Binary is set. Source may be a file or a directory.
type StaticFile struct {
	Path   string
	Source Source
	Binary bool
}

// AptPreference is one pin stanza.
type AptPreference struct {
	Package     string
	Pin         string
	PinPriority int
	Type        AptPreferenceType
}

// DirectConfig copies Source to Path relative to the build directory.
type DirectConfig struct {
	Path   string
	Source Source
}

// Group nests targets. It is flattened before any writer runs.
type Group []Target

// KindOf returns the kind of t when t is one of the leaf target types above.
// Pointers and types from other packages report false whatever their Kind
// method says.
func KindOf(t Target) (Kind, bool) {
	switch t.(type) {
	case UpstreamPackages:
		return KindUpstreamPackages, true
	case CustomDeb:
		return KindCustomDeb, true
	case HookScript:
		return KindHookScript, true
	case StaticFile:
		return KindStaticFile, true
	case AptPreference:
		return KindAptPreference, true
	case DirectConfig:
		return KindDirectConfig, true
	default:
		return "", false
	}
}

func (p UpstreamPackages) Validate() error {
	_, err := ParsePackagePriority(string(p.Priority))
	return err
}

func (p AptPreference) Validate() error {
	_, err := ParseAptPreferenceType(string(p.Type))
	return err
}

func (UpstreamPackages) Kind() Kind { return KindUpstreamPackages }
func (CustomDeb) Kind() Kind        { return KindCustomDeb }
func (HookScript) Kind() Kind       { return KindHookScript }
func (StaticFile) Kind() Kind       { return KindStaticFile }
func (AptPreference) Kind() Kind    { return KindAptPreference }
func (DirectConfig) Kind() Kind     { return KindDirectConfig }
func (Group) Kind() Kind            { return KindGroup }
