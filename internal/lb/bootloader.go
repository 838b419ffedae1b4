package lb

import (
	"fmt"
	"os"

	"github.com/pirakansa/lbkit/pkg/target"
)

// CopyBootloaders returns a target copying the bootloader templates in
// sourceDir (one subdirectory per bootloader) to config/bootloaders.
func CopyBootloaders(sourceDir string) (target.DirectConfig, error) {
	if sourceDir == "" {
		sourceDir = DefaultBuiltinBootloaderDir
	}
	info, err := os.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		return target.DirectConfig{}, fmt.Errorf("bootloader directory %s does not exist or is not a directory", sourceDir)
	}
	return target.DirectConfig{
		Path:   BootloaderDir,
		Source: target.Path(sourceDir),
	}, nil
}
