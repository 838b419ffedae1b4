package lb

import "path/filepath"

// Paths under the image build directory, following the live-build manual.
const (
	AutoScriptDir = "auto"
	ConfigDir     = "config"
)

var (
	// ChrootIncludeDir holds files present in the live and installed system.
	ChrootIncludeDir = filepath.Join(ConfigDir, "includes.chroot")
	// BinaryIncludeDir holds files present on the image medium itself.
	BinaryIncludeDir = filepath.Join(ConfigDir, "includes.binary")

	PackageListDir = filepath.Join(ConfigDir, "package-lists")
	ChrootDebDir   = filepath.Join(ConfigDir, "packages.chroot")

	BuildTimeAptPreferenceFile = filepath.Join(ConfigDir, "apt", "preferences")
	RunTimeAptPreferenceFile   = filepath.Join(ChrootIncludeDir, "etc", "apt", "preferences")

	HooksDir       = filepath.Join(ConfigDir, "hooks")
	LiveHooksDir   = filepath.Join(HooksDir, "live")
	NormalHooksDir = filepath.Join(HooksDir, "normal")

	BootloaderDir = filepath.Join(ConfigDir, "bootloaders")
)

// Host defaults.
const (
	DefaultBuildDir             = "/tmp/iso"
	DefaultBuiltinBootloaderDir = "/usr/share/live/build/bootloaders"
	DefaultLiveBuildBinary      = "/usr/bin/lb"
	DefaultDpkgNameBinary       = "/usr/bin/dpkg-name"
	DefaultImageName            = "myos"
	DefaultDistribution         = "trixie"
)
