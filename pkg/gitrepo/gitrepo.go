// Package gitrepo manages temporary working copies of the projects under
// audit.
package gitrepo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ossrange/repoaudit/pkg/execx"
)

// Manager clones subject repositories into a temp directory and removes them
// after their scan completes.
type Manager struct {
	tempDir string
	runner  execx.Runner
	logger  *logrus.Logger
}

func NewManager(tempDir string, runner execx.Runner, logger *logrus.Logger) *Manager {
	if runner == nil {
		runner = execx.OSRunner{}
	}
	return &Manager{tempDir: tempDir, runner: runner, logger: logger}
}

// ReadList reads subject repository URLs from a text file, one per line.
// Blank lines and # comments are skipped.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading repository list: %w", err)
	}
	defer f.Close()

	var repos []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		repos = append(repos, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading repository list: %w", err)
	}
	return repos, nil
}

// Clone checks out a shallow working copy of url under the temp directory and
// returns its path. An existing directory for the same repository is removed
// first.
func (m *Manager) Clone(ctx context.Context, url string) (string, error) {
	name := RepoName(url)
	dest := filepath.Join(m.tempDir, name)

	if _, err := os.Stat(dest); err == nil {
		m.logger.WithField("path", dest).Debug("Removing stale working copy")
		if err := os.RemoveAll(dest); err != nil {
			return "", fmt.Errorf("removing stale working copy: %w", err)
		}
	}
	if err := os.MkdirAll(m.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}

	m.logger.WithField("url", url).Info("Cloning repository")
	if _, err := m.runner.Run(ctx, "", "git", "clone", "--depth", "1", url, dest); err != nil {
		return "", fmt.Errorf("cloning %s: %w", url, err)
	}
	return dest, nil
}

// Cleanup removes a working copy produced by Clone.
func (m *Manager) Cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		m.logger.WithField("path", dir).WithError(err).Warn("Failed to clean up working copy")
		return
	}
	m.logger.WithField("path", dir).Debug("Cleaned up working copy")
}

// RepoName derives the short repository name from its URL.
func RepoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repository"
	}
	return name
}
