// Package source normalizes a dependency's version-control reference into a
// canonical web URL.
package source

import (
	"regexp"
	"strings"

	"github.com/ossrange/repoaudit/pkg/model"
	"github.com/ossrange/repoaudit/pkg/registry"
)

const projectPageBase = "https://www.drupal.org/project/"

// ecosystemHost is the code-hosting domain whose repositories map to
// drupal.org project pages rather than to the raw repository URL.
const ecosystemHost = "git.drupalcode.org"

// maxInspected limits how many release records are checked for a usable
// source reference.
const maxInspected = 5

var sshRefPattern = regexp.MustCompile(`^[\w.-]+@([\w.-]+):(.+)$`)

// Resolve returns a best-effort canonical URL for a dependency. It inspects
// up to the first maxInspected release records (registry order) for a source
// reference and normalizes the first one found. When no record carries a
// usable reference it falls back to the ecosystem's project page built from
// the dependency's short name. Resolve never fails and is idempotent.
func Resolve(name string, releases []model.ReleaseRecord) string {
	short := registry.ShortName(name)

	for i, rel := range releases {
		if i >= maxInspected {
			break
		}
		if rel.SourceReference == "" {
			continue
		}
		return normalize(rel.SourceReference, short)
	}

	return projectPageBase + short
}

// normalize applies the rewrite rules in order; the first matching rule wins.
func normalize(ref, short string) string {
	if m := sshRefPattern.FindStringSubmatch(ref); m != nil {
		return strings.TrimSuffix("https://"+m[1]+"/"+m[2], ".git")
	}

	ref = strings.TrimSuffix(ref, ".git")
	if strings.Contains(ref, ecosystemHost) {
		return projectPageBase + short
	}
	return ref
}
