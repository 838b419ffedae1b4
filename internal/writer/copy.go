package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"github.com/pirakansa/lbkit/pkg/target"
)

// MissingSourceError reports a source path that does not exist.
type MissingSourceError struct {
	Kind target.Kind
	Path string
	Err  error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("%s source %s does not exist", e.Kind, e.Path)
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}

// resolveSource resolves src and checks that the path exists. It returns the
// path the source reported and that path with symbolic links followed.
func resolveSource(ctx context.Context, kind target.Kind, src target.Source) (string, string, error) {
	if src == nil {
		return "", "", fmt.Errorf("%s target has no source", kind)
	}
	path, err := src.Resolve(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s source: %w", kind, err)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", &MissingSourceError{Kind: kind, Path: path, Err: err}
		}
		return "", "", err
	}
	return path, resolved, nil
}

// copyPath copies a file or a directory tree to dest. Directories merge into
// an existing dest and symbolic links inside the tree are kept as links.
func copyPath(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return copy.Copy(src, dest, copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		OnDirExists: func(string, string) copy.DirExistsAction {
			return copy.Merge
		},
	})
}

// joinUnderRoot strips the root component of path and joins the rest under
// root. Paths climbing out of root are rejected.
func joinUnderRoot(root, path string) (string, error) {
	sep := string(filepath.Separator)
	rel := strings.TrimLeft(filepath.Clean(path), sep)
	if rel == "" || rel == "." {
		return filepath.Clean(root), nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return "", fmt.Errorf("target path %q escapes %s", path, root)
	}
	return filepath.Join(root, rel), nil
}
