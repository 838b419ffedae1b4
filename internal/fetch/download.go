package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/pirakansa/lbkit/internal/logs"
)

const userAgent = "lbkit/1.0"

// Fetcher downloads remote sources to local temporary files.
type Fetcher struct {
	Client  *http.Client
	Headers map[string]string
	Logger  *logs.Logger
}

func New(logger *logs.Logger) *Fetcher {
	return &Fetcher{Client: http.DefaultClient, Logger: logger}
}

// Download fetches rawURL and returns the path of the temporary file holding
// the body. The caller owns the file.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	f.Logger.Info("downloading", "url", rawURL)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download failed: %s status=%d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "lbkit-fetch-*-"+baseName(rawURL))
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	f.Logger.Info("downloaded", "url", rawURL, "path", tmp.Name(), "bytes", n)
	return tmp.Name(), nil
}

func baseName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" || strings.ContainsAny(name, `*\`) {
		return "download"
	}
	return name
}
