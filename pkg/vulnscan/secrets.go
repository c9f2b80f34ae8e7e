// Package vulnscan hosts the finding collaborators: a static-analysis sweep
// over the working copy and an advisory lookup through the composer tool.
// Each produces findings already mapped into the closed variant set; a
// missing tool yields an empty sequence, never nil-with-error.
package vulnscan

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/ossrange/repoaudit/pkg/model"
)

const maxReadBytes = 512 * 1024

var secretChecks = []struct {
	name     string
	severity string
	pattern  *regexp.Regexp
}{
	{"private-key-material", "critical", regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
	{"hardcoded-password", "high", regexp.MustCompile(`(?i)['"]?(?:password|passwd|db_pass)['"]?\]?\s*(?:=>|[:=])\s*['"][^'"]{4,}['"]`)},
	{"hardcoded-api-key", "high", regexp.MustCompile(`(?i)['"]?(?:api[_-]?key|secret[_-]?key|access[_-]?token)['"]?\]?\s*(?:=>|[:=])\s*['"][^'"]{8,}['"]`)},
}

var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"core":         true,
}

// StaticScanner sweeps a working copy for common code issues: credential
// material committed to the repository and environment files that should not
// be tracked.
type StaticScanner struct {
	logger *logrus.Logger
}

func NewStaticScanner(logger *logrus.Logger) *StaticScanner {
	return &StaticScanner{logger: logger}
}

// Scan walks the working copy and returns its findings. Unreadable files are
// skipped, not fatal.
func (s *StaticScanner) Scan(root string) ([]model.Finding, error) {
	var findings []model.Finding

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.Name() == ".env" {
			findings = append(findings, model.StaticAnalysisFinding{
				Check:    "tracked-dotenv",
				Detail:   "environment file committed to the repository",
				File:     rel,
				Severity: "medium",
			})
			return nil
		}

		matches, scanErr := scanFile(path)
		if scanErr != nil {
			return nil
		}
		for _, name := range matches {
			severity := ""
			for _, check := range secretChecks {
				if check.name == name {
					severity = check.severity
				}
			}
			findings = append(findings, model.StaticAnalysisFinding{
				Check:    name,
				Detail:   "possible credential committed to the repository",
				File:     rel,
				Severity: severity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweeping %s: %w", root, err)
	}

	s.logger.WithFields(logrus.Fields{
		"root":     root,
		"findings": len(findings),
	}).Debug("Static sweep finished")

	return findings, nil
}

// scanFile returns the names of the checks that matched, one entry per check
// regardless of how often its pattern occurs.
func scanFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, maxReadBytes))
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(buf, 0) >= 0 {
		return nil, nil
	}

	var matched []string
	for _, check := range secretChecks {
		if check.pattern.Match(buf) {
			matched = append(matched, check.name)
		}
	}
	return matched, nil
}
