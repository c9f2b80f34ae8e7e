package freshness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ossrange/repoaudit/pkg/model"
)

func releases(versions ...string) []model.ReleaseRecord {
	recs := make([]model.ReleaseRecord, 0, len(versions))
	for _, v := range versions {
		recs = append(recs, model.ReleaseRecord{Version: v})
	}
	return recs
}

func TestClassifyPrereleasesFiltered(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "8.1.0"}
	rec := Classify(decl, releases("8.1.0", "8.2.0", "9.0.0-rc1", "7.5.0"))

	assert.Equal(t, "8.2.0", rec.LatestStableVersion, "rc release must not win")
	assert.True(t, rec.IsOutdated)
	assert.Equal(t, model.UpdateMinor, rec.Severity)
}

func TestClassifyEqualVersionNotOutdated(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "8.2.0"}
	rec := Classify(decl, releases("8.1.0", "8.2.0"))

	assert.False(t, rec.IsOutdated)
	assert.Equal(t, model.UpdateUnknown, rec.Severity)
}

func TestClassifyFloorAheadOfRegistry(t *testing.T) {
	// A locally vendored version newer than anything published is not outdated.
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "2.0.0"}
	rec := Classify(decl, releases("1.9.0"))

	assert.Equal(t, "1.9.0", rec.LatestStableVersion)
	assert.False(t, rec.IsOutdated)
}

func TestClassifyNoStableReleases(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "1.0.0"}

	for name, rels := range map[string][]model.ReleaseRecord{
		"empty":          nil,
		"all prerelease": releases("1.0.0-alpha1", "2.0.0-beta1", "1.x-dev"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := Classify(decl, rels)
			assert.Empty(t, rec.LatestStableVersion)
			assert.False(t, rec.IsOutdated)
			assert.Equal(t, model.UpdateUnknown, rec.Severity)
		})
	}
}

func TestClassifyUnparseableFloor(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "8.x-1.0"}
	rec := Classify(decl, releases("1.0.0", "2.0.0"))

	assert.Equal(t, "2.0.0", rec.LatestStableVersion)
	assert.False(t, rec.IsOutdated, "unparseable floor cannot prove staleness")
	assert.Equal(t, model.UpdateUnknown, rec.Severity)
}

func TestClassifyUnparseableReleasesExcluded(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: "1.0.0"}
	rec := Classify(decl, releases("not-a-version", "1.2.0", "junk.release"))

	assert.Equal(t, "1.2.0", rec.LatestStableVersion)
	assert.True(t, rec.IsOutdated)
	assert.Equal(t, model.UpdateMinor, rec.Severity)
}

func TestClassifyConstraintOperators(t *testing.T) {
	cases := []struct {
		constraint string
		outdated   bool
		severity   model.UpdateSeverity
	}{
		{"^1.0.0", true, model.UpdateMajor},
		{"~1.5", true, model.UpdateMajor},
		{">=1.0 <2.0", true, model.UpdateMajor},
		{"1.0 || 2.0", true, model.UpdateMajor},
		{"v2.0.0", false, model.UpdateUnknown},
		{"^2.0", false, model.UpdateUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: tc.constraint}
			rec := Classify(decl, releases("2.0.0"))
			assert.Equal(t, tc.outdated, rec.IsOutdated)
			assert.Equal(t, tc.severity, rec.Severity)
		})
	}
}

func TestClassifySeverityComponents(t *testing.T) {
	cases := []struct {
		name     string
		floor    string
		latest   string
		severity model.UpdateSeverity
	}{
		{"major", "1.2.3", "2.0.0", model.UpdateMajor},
		{"minor", "1.2.3", "1.3.0", model.UpdateMinor},
		{"patch", "1.2.3", "1.2.4", model.UpdatePatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decl := model.DependencyDeclaration{Name: "drupal/mod", DeclaredConstraint: tc.floor}
			rec := Classify(decl, releases(tc.latest))
			assert.True(t, rec.IsOutdated)
			assert.Equal(t, tc.severity, rec.Severity)
		})
	}
}

func TestClassifyAttachesSourceURL(t *testing.T) {
	decl := model.DependencyDeclaration{Name: "drupal/token", DeclaredConstraint: "1.0.0"}
	rels := []model.ReleaseRecord{
		{Version: "1.15.0", SourceReference: "https://git.drupalcode.org/project/token.git"},
	}
	rec := Classify(decl, rels)
	assert.Equal(t, "https://www.drupal.org/project/token", rec.ResolvedSourceURL)
}
