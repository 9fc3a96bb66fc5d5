// Package download fetches install artifacts into per-task scratch
// directories.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultFilename is used when the URL yields no usable filename
const DefaultFilename = "installer.exe"

// scratchPrefix names per-task directories: zldap_install_<taskID>_<random>
const scratchPrefix = "zldap_install_"

// DownloadError reports a non-success response from the artifact server
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s failed with status %d", e.URL, e.StatusCode)
}

// Artifact is a downloaded file inside its own scratch directory
type Artifact struct {
	Dir  string
	Name string
	Path string
}

// Manager downloads artifacts
type Manager struct {
	fs     afero.Fs
	client *http.Client
	root   string
	logger *zap.Logger
}

// New creates a Manager that writes under root on fs
func New(fs afero.Fs, client *http.Client, root string, logger *zap.Logger) *Manager {
	return &Manager{
		fs:     fs,
		client: client,
		root:   root,
		logger: logger.Named("download"),
	}
}

// Fetch downloads rawURL into a fresh scratch directory for taskID
func (m *Manager) Fetch(ctx context.Context, rawURL string, taskID int) (*Artifact, error) {
	name := SanitizeFilename(rawURL)

	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}
	dir, err := afero.TempDir(m.fs, m.root, scratchPrefix+strconv.Itoa(taskID)+"_")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	artifact := &Artifact{
		Dir:  dir,
		Name: name,
		Path: filepath.Join(dir, name),
	}

	m.logger.Info("downloading artifact",
		zap.Int("task_id", taskID),
		zap.String("url", rawURL),
		zap.String("path", artifact.Path),
	)

	if err := m.fetchTo(ctx, rawURL, artifact.Path); err != nil {
		m.Remove(artifact)
		return nil, err
	}

	// Unix loaders refuse files without an execute bit
	if runtime.GOOS != "windows" {
		if err := m.fs.Chmod(artifact.Path, 0o755); err != nil {
			m.Remove(artifact)
			return nil, fmt.Errorf("failed to mark artifact executable: %w", err)
		}
	}

	m.logger.Info("download complete", zap.Int("task_id", taskID))
	return artifact, nil
}

func (m *Manager) fetchTo(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	f, err := m.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	return nil
}

// Remove deletes the artifact's scratch directory
func (m *Manager) Remove(a *Artifact) {
	if a == nil || a.Dir == "" {
		return
	}
	if err := m.fs.RemoveAll(a.Dir); err != nil {
		m.logger.Warn("failed to remove scratch dir", zap.String("dir", a.Dir), zap.Error(err))
	}
}

// SanitizeFilename derives a bare filename from an artifact URL: the last
// path segment, cut at the first '?', reduced to its base name with both
// slash styles treated as separators. Empty, "." and ".." fall back to
// DefaultFilename.
func SanitizeFilename(rawURL string) string {
	name := rawURL
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}

	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)

	switch name {
	case "", ".", "..", "/":
		return DefaultFilename
	}
	return name
}
