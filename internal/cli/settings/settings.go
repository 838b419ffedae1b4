// Package settings reads tool settings from flags, LBKIT_* environment
// variables and an optional settings.yaml.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/pirakansa/lbkit/internal/lb"
	"github.com/pirakansa/lbkit/internal/logs"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "LBKIT"
	ConfigName = "settings"

	KeyLogLevel        = "log.level"
	KeyLogOutput       = "log.output"
	KeyLBCommand       = "lb.command"
	KeyDpkgNameCommand = "dpkg_name.command"
	KeyBootloaderDir   = "bootloader.dir"
	KeySettingsFile    = "settings"
)

// Settings are the host specific knobs that do not belong in a recipe.
type Settings struct {
	LogLevel      string
	LogOutput     logs.Output
	LBCommand     []string
	DpkgName      []string
	BootloaderDir string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogOutput, string(logs.OutputStderr))
	v.SetDefault(KeyLBCommand, lb.DefaultLiveBuildBinary)
	v.SetDefault(KeyDpkgNameCommand, lb.DefaultDpkgNameBinary)
	v.SetDefault(KeyBootloaderDir, lb.DefaultBuiltinBootloaderDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// RegisterFlags adds the settings flags to flags and binds them to v.
func RegisterFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String("settings", "", "path to settings file (default: search /etc/lbkit and ~/.config/lbkit)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-output", string(logs.OutputStderr), "log output (stdout, stderr)")
	flags.String("lb-command", lb.DefaultLiveBuildBinary, "live-build command, e.g. \"sudo lb\"")
	flags.String("dpkg-name-command", lb.DefaultDpkgNameBinary, "dpkg-name command")
	flags.String("bootloader-dir", lb.DefaultBuiltinBootloaderDir, "host bootloader templates directory")

	_ = v.BindPFlag(KeySettingsFile, flags.Lookup("settings"))
	_ = v.BindPFlag(KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(KeyLogOutput, flags.Lookup("log-output"))
	_ = v.BindPFlag(KeyLBCommand, flags.Lookup("lb-command"))
	_ = v.BindPFlag(KeyDpkgNameCommand, flags.Lookup("dpkg-name-command"))
	_ = v.BindPFlag(KeyBootloaderDir, flags.Lookup("bootloader-dir"))
}

// Read loads the settings file, if any, and returns the resolved settings.
// A missing file is only an error when it was named explicitly.
func Read(v *viper.Viper) (*Settings, error) {
	if file := v.GetString(KeySettingsFile); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/lbkit")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lbkit"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	output := logs.Output(v.GetString(KeyLogOutput))
	if output != logs.OutputStdout && output != logs.OutputStderr {
		return nil, fmt.Errorf("unknown log output %q", output)
	}
	lbCommand, err := splitCommand(KeyLBCommand, v.GetString(KeyLBCommand))
	if err != nil {
		return nil, err
	}
	dpkgName, err := splitCommand(KeyDpkgNameCommand, v.GetString(KeyDpkgNameCommand))
	if err != nil {
		return nil, err
	}
	return &Settings{
		LogLevel:      v.GetString(KeyLogLevel),
		LogOutput:     output,
		LBCommand:     lbCommand,
		DpkgName:      dpkgName,
		BootloaderDir: v.GetString(KeyBootloaderDir),
	}, nil
}

// Logger builds the logger described by s.
func (s *Settings) Logger() *logs.Logger {
	cfg := logs.DefaultConfig()
	cfg.Level = s.LogLevel
	cfg.Output = s.LogOutput
	return logs.New(cfg)
}

func splitCommand(key, value string) ([]string, error) {
	argv, err := shlex.Split(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s is empty", key)
	}
	return argv, nil
}
