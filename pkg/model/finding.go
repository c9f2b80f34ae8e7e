package model

import "fmt"

// FindingKind identifies one of the closed set of finding variants. Its
// numeric order is the fixed display order used when grouping findings in a
// report.
type FindingKind int

const (
	KindDependencyFreshness FindingKind = iota
	KindStaticAnalysis
	KindKnownVulnerability
	KindGenericIssue
)

func (k FindingKind) String() string {
	switch k {
	case KindDependencyFreshness:
		return "dependency-freshness"
	case KindStaticAnalysis:
		return "static-analysis"
	case KindKnownVulnerability:
		return "known-vulnerability"
	default:
		return "generic-issue"
	}
}

// Finding is a single reportable observation. The variant set is closed:
// renderers dispatch on Kind with a type switch rather than probing fields.
type Finding interface {
	Kind() FindingKind
	Description() string
	SeverityTag() string
}

// DependencyFreshnessFinding reports a dependency whose declared constraint
// lags behind the latest stable release.
type DependencyFreshnessFinding struct {
	Dependency         string         `json:"dependency"`
	DeclaredConstraint string         `json:"declared_constraint"`
	LatestVersion      string         `json:"latest_version"`
	Severity           UpdateSeverity `json:"severity"`
	SourceURL          string         `json:"source_url,omitempty"`
}

func (f DependencyFreshnessFinding) Kind() FindingKind { return KindDependencyFreshness }

func (f DependencyFreshnessFinding) Description() string {
	return fmt.Sprintf("%s is outdated: declared %s, latest stable %s",
		f.Dependency, f.DeclaredConstraint, f.LatestVersion)
}

func (f DependencyFreshnessFinding) SeverityTag() string { return string(f.Severity) }

// StaticAnalysisFinding is an issue reported by a static-analysis collaborator.
type StaticAnalysisFinding struct {
	Check    string `json:"check"`
	Detail   string `json:"detail"`
	File     string `json:"file,omitempty"`
	Severity string `json:"severity,omitempty"`
}

func (f StaticAnalysisFinding) Kind() FindingKind { return KindStaticAnalysis }

func (f StaticAnalysisFinding) Description() string {
	if f.File != "" {
		return fmt.Sprintf("%s: %s (%s)", f.Check, f.Detail, f.File)
	}
	return fmt.Sprintf("%s: %s", f.Check, f.Detail)
}

func (f StaticAnalysisFinding) SeverityTag() string { return f.Severity }

// KnownVulnerabilityFinding is a published advisory matched against an
// installed dependency.
type KnownVulnerabilityFinding struct {
	Package    string `json:"package"`
	Installed  string `json:"installed,omitempty"`
	AdvisoryID string `json:"advisory_id"`
	Title      string `json:"title"`
	Severity   string `json:"severity,omitempty"`
	Link       string `json:"link,omitempty"`
}

func (f KnownVulnerabilityFinding) Kind() FindingKind { return KindKnownVulnerability }

func (f KnownVulnerabilityFinding) Description() string {
	return fmt.Sprintf("%s (%s): %s", f.Package, f.AdvisoryID, f.Title)
}

func (f KnownVulnerabilityFinding) SeverityTag() string { return f.Severity }

// GenericIssueFinding carries any observation that does not fit the other
// variants, including degraded collaborator failures.
type GenericIssueFinding struct {
	Detail   string `json:"detail"`
	Severity string `json:"severity,omitempty"`
}

func (f GenericIssueFinding) Kind() FindingKind { return KindGenericIssue }

func (f GenericIssueFinding) Description() string { return f.Detail }

func (f GenericIssueFinding) SeverityTag() string { return f.Severity }
