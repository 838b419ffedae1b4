package recipe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	pkgrecipe "github.com/pirakansa/lbkit/pkg/recipe"
	"gopkg.in/yaml.v3"
)

// Load reads, normalizes and validates the recipe at location, a local path
// or an http(s) URL. The returned base directory anchors relative paths in
// the recipe; it is the working directory for remote recipes.
func Load(ctx context.Context, location string) (*pkgrecipe.Recipe, string, error) {
	content, err := readRecipe(ctx, location)
	if err != nil {
		return nil, "", err
	}

	var r pkgrecipe.Recipe
	if err := yaml.Unmarshal(content, &r); err != nil {
		return nil, "", fmt.Errorf("parse recipe %s: %w", location, err)
	}
	pkgrecipe.Normalize(&r)
	if err := pkgrecipe.Validate(&r); err != nil {
		return nil, "", fmt.Errorf("invalid recipe %s: %w", location, err)
	}

	baseDir := ""
	if !pkgrecipe.IsRemoteLocation(location) {
		baseDir = filepath.Dir(location)
	}
	if baseDir, err = filepath.Abs(baseDir); err != nil {
		return nil, "", err
	}
	return &r, baseDir, nil
}

func readRecipe(ctx context.Context, location string) ([]byte, error) {
	if pkgrecipe.IsRemoteLocation(location) {
		return readRemoteRecipe(ctx, location)
	}
	return os.ReadFile(location)
}

func readRemoteRecipe(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("load recipe failed: %s status=%d", location, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
