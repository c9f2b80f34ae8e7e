package model

import (
	"strings"
	"time"
)

// DependencyDeclaration is a single dependency as declared by a project's
// manifest: the package name and the raw version constraint string.
type DependencyDeclaration struct {
	Name               string `json:"name"`
	DeclaredConstraint string `json:"declared_constraint"`
}

// ReleaseRecord is one published release as reported by the registry.
// SourceReference is the version-control URL the registry attached to the
// release, empty when the registry reported none.
type ReleaseRecord struct {
	Version         string `json:"version"`
	SourceReference string `json:"source_reference,omitempty"`
}

// UpdateSeverity classifies how far a declared constraint lags behind the
// latest stable release.
type UpdateSeverity string

const (
	UpdateMajor   UpdateSeverity = "major"
	UpdateMinor   UpdateSeverity = "minor"
	UpdatePatch   UpdateSeverity = "patch"
	UpdateUnknown UpdateSeverity = "unknown"
)

// FreshnessRecord is the per-dependency result of a freshness check.
// LatestStableVersion is empty when the registry reported no usable stable
// release. The record is never mutated after creation.
type FreshnessRecord struct {
	Dependency          string         `json:"dependency"`
	DeclaredConstraint  string         `json:"declared_constraint"`
	LatestStableVersion string         `json:"latest_stable_version,omitempty"`
	ResolvedSourceURL   string         `json:"resolved_source_url,omitempty"`
	IsOutdated          bool           `json:"is_outdated"`
	Severity            UpdateSeverity `json:"severity"`
}

// ScanStatus is the terminal state of one scanned subject.
type ScanStatus string

const (
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusErrored   ScanStatus = "errored"
)

// ScanReport aggregates everything produced for a single subject. It is
// immutable once handed to the renderer.
type ScanReport struct {
	Subject     string            `json:"subject"`
	GeneratedAt time.Time         `json:"generated_at"`
	Status      ScanStatus        `json:"status"`
	Findings    []Finding         `json:"findings"`
	Freshness   []FreshnessRecord `json:"freshness"`
	Summary     string            `json:"summary,omitempty"`
}

// SummaryReport wraps the ordered per-subject reports of one run. Run-level
// counts are always computed by reduction over Reports, never stored.
type SummaryReport struct {
	Reports []ScanReport `json:"reports"`
}

func (s SummaryReport) Total() int {
	return len(s.Reports)
}

func (s SummaryReport) Successful() int {
	n := 0
	for _, r := range s.Reports {
		if r.Status == StatusCompleted {
			n++
		}
	}
	return n
}

func (s SummaryReport) Failed() int {
	return s.Total() - s.Successful()
}

var prereleaseMarkers = []string{"dev", "alpha", "beta", "rc", "x-dev"}

// IsPrerelease reports whether a version string denotes an unstable release.
// A release is unstable when its version contains one of the known markers,
// case-insensitively.
func IsPrerelease(version string) bool {
	v := strings.ToLower(version)
	for _, marker := range prereleaseMarkers {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}
