// Package manifest extracts tracked dependency declarations from a project's
// composer.json.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ossrange/repoaudit/pkg/model"
)

const fileName = "composer.json"

// corePackages are part of the platform itself and are not tracked as contrib
// dependencies.
var corePackages = map[string]bool{
	"drupal/core":                   true,
	"drupal/core-recommended":       true,
	"drupal/core-composer-scaffold": true,
	"drupal/core-dev":               true,
	"drupal/core-project-message":   true,
	"drupal/core-vendor-hardening":  true,
}

type composerFile struct {
	Name    string            `json:"name"`
	Require map[string]string `json:"require"`
}

// Manifest is the parsed view of a project's composer.json.
type Manifest struct {
	raw composerFile
}

// Load reads and parses the composer.json inside dir. A missing or
// unparseable file is an error: without a manifest the subject cannot be
// scanned at all.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw composerFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &Manifest{raw: raw}, nil
}

// IsDrupalProject reports whether the manifest declares a Drupal core package.
func (m *Manifest) IsDrupalProject() bool {
	for _, indicator := range []string{"drupal/core", "drupal/core-recommended", "drupal/core-composer-scaffold"} {
		if _, ok := m.raw.Require[indicator]; ok {
			return true
		}
	}
	return false
}

// CoreVersion returns the declared Drupal core constraint, or "unknown".
func (m *Manifest) CoreVersion() string {
	for _, pkg := range []string{"drupal/core", "drupal/core-recommended"} {
		if v, ok := m.raw.Require[pkg]; ok {
			return v
		}
	}
	return "unknown"
}

// Declarations returns the tracked contrib dependencies in a stable order.
// Names are unique within one manifest; core packages are excluded.
func (m *Manifest) Declarations() []model.DependencyDeclaration {
	var decls []model.DependencyDeclaration
	for name, constraint := range m.raw.Require {
		if !strings.HasPrefix(name, "drupal/") || corePackages[name] {
			continue
		}
		decls = append(decls, model.DependencyDeclaration{
			Name:               name,
			DeclaredConstraint: constraint,
		})
	}

	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}
