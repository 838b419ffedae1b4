package shared

import (
	"fmt"
	"os"
	"time"
)

const backupTimeFormat = "20060102150405"

// BackupFile copies path to <path>.<timestamp>.bak and returns the backup
// path. A missing path is not an error and yields "".
func BackupFile(path string, now time.Time) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	backupPath := fmt.Sprintf("%s.%s.bak", path, now.Format(backupTimeFormat))
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}
