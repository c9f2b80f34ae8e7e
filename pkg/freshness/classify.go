// Package freshness decides whether a declared dependency constraint lags
// behind the latest stable release and classifies the update magnitude.
package freshness

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ossrange/repoaudit/pkg/model"
	"github.com/ossrange/repoaudit/pkg/source"
)

// Classify produces the freshness record for one dependency. Staleness is
// judged only against stable history: prerelease versions are discarded and
// version strings that fail structured parsing are excluded from the latest
// computation. Any parse failure degrades the record to severity unknown
// rather than failing; equal or greater floors are never outdated.
func Classify(decl model.DependencyDeclaration, releases []model.ReleaseRecord) model.FreshnessRecord {
	rec := model.FreshnessRecord{
		Dependency:         decl.Name,
		DeclaredConstraint: decl.DeclaredConstraint,
		ResolvedSourceURL:  source.Resolve(decl.Name, releases),
		Severity:           model.UpdateUnknown,
	}

	latest := latestStable(releases)
	if latest == nil {
		return rec
	}
	rec.LatestStableVersion = latest.Original()

	floor, ok := comparisonFloor(decl.DeclaredConstraint)
	if !ok {
		return rec
	}

	if floor.LessThan(latest) {
		rec.IsOutdated = true
		rec.Severity = updateSeverity(floor, latest)
	}
	return rec
}

// latestStable returns the maximum parseable stable release, or nil when no
// stable release remains.
func latestStable(releases []model.ReleaseRecord) *semver.Version {
	var latest *semver.Version
	for _, rel := range releases {
		if model.IsPrerelease(rel.Version) {
			continue
		}
		v, err := semver.NewVersion(rel.Version)
		if err != nil {
			continue
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}
	}
	return latest
}

// comparisonFloor normalizes a declared constraint into a comparable version:
// the first element of a range list with its operator prefix stripped.
func comparisonFloor(constraint string) (*semver.Version, bool) {
	token := constraint
	for _, sep := range []string{"||", ","} {
		token = strings.Split(token, sep)[0]
	}
	if fields := strings.Fields(token); len(fields) > 0 {
		token = fields[0]
	}
	token = strings.TrimLeft(token, "^~><=!")
	token = strings.TrimPrefix(token, "v")
	if token == "" || token == "*" {
		return nil, false
	}

	v, err := semver.NewVersion(token)
	if err != nil {
		return nil, false
	}
	return v, true
}

// updateSeverity classifies the component-level gap between an outdated floor
// and the latest stable release.
func updateSeverity(floor, latest *semver.Version) model.UpdateSeverity {
	switch {
	case latest.Major() > floor.Major():
		return model.UpdateMajor
	case latest.Minor() > floor.Minor():
		return model.UpdateMinor
	default:
		return model.UpdatePatch
	}
}
