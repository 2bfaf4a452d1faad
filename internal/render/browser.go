package render

import (
	"fmt"
	"os"
	"path/filepath"

	"go-quotepdf/internal/utils"

	"github.com/go-rod/rod/lib/launcher"
)

const (
	letterWidthInches  = 8.5
	letterHeightInches = 11
)

// resolveBrowser returns the configured executable. When none is set and
// autoDownload is on, a browser on PATH is preferred before downloading a
// Chromium build into rod's cache. An empty result lets the engine search
// its default locations.
func resolveBrowser(path string, autoDownload bool) (string, error) {
	if path != "" || !autoDownload {
		return path, nil
	}
	if found, ok := launcher.LookPath(); ok {
		return found, nil
	}
	got, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("%w: downloading browser: %v", ErrBrowserLaunch, err)
	}
	return got, nil
}

// writePage stores html under dir so the browser can load it by file URL.
// The caller removes the returned path.
func writePage(dir, html string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(dir, "render-"+utils.GenerateUUID()+".html"))
	if err != nil {
		return "", fmt.Errorf("resolving page path: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		return "", fmt.Errorf("writing page: %w", err)
	}
	return path, nil
}

func floatPtr(v float64) *float64 {
	return &v
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
