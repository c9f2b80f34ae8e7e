// Package output renders aggregated scan reports as plain text. The text
// format, with its fixed section-delimiter convention, is the persisted
// artifact contract: rendering is deterministic and total, absent values
// appear as an explicit placeholder.
package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ossrange/repoaudit/pkg/model"
)

const (
	ruleHeavy = "================================================================================"
	ruleLight = "--------------------------------------------------------------------------------"

	placeholder = "not available"

	timeLayout = "2006-01-02 15:04:05 UTC"
)

// Render serializes one scan report. It never fails.
func Render(report model.ScanReport) string {
	var b strings.Builder

	b.WriteString(ruleHeavy + "\n")
	fmt.Fprintf(&b, "SECURITY SCAN REPORT: %s\n", orPlaceholder(report.Subject))
	b.WriteString(ruleHeavy + "\n\n")

	generated := placeholder
	if !report.GeneratedAt.IsZero() {
		generated = report.GeneratedAt.UTC().Format(timeLayout)
	}
	fmt.Fprintf(&b, "Generated: %s\n", generated)
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(string(report.Status)))
	b.WriteString("\n" + ruleLight + "\n\n")

	writeFindings(&b, report.Findings)
	b.WriteString(ruleLight + "\n\n")

	writeFreshness(&b, report.Freshness)

	if report.Summary != "" {
		b.WriteString(ruleLight + "\n\n")
		b.WriteString("ANALYSIS SUMMARY\n\n")
		b.WriteString(report.Summary)
		b.WriteString("\n\n")
	}

	b.WriteString(ruleHeavy + "\n")
	b.WriteString("End of Report\n")
	b.WriteString(ruleHeavy + "\n")

	return b.String()
}

func writeFindings(b *strings.Builder, findings []model.Finding) {
	fmt.Fprintf(b, "FINDINGS (%d)\n\n", len(findings))
	if len(findings) == 0 {
		b.WriteString("No findings.\n\n")
		return
	}

	lastKind := model.FindingKind(-1)
	for _, f := range findings {
		if f.Kind() != lastKind {
			if lastKind >= 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(b, "%s:\n", sectionTitle(f.Kind()))
			lastKind = f.Kind()
		}
		b.WriteString(bullet(f))
	}
	b.WriteString("\n")
}

func sectionTitle(kind model.FindingKind) string {
	switch kind {
	case model.KindDependencyFreshness:
		return "Outdated Dependencies"
	case model.KindStaticAnalysis:
		return "Static Analysis Issues"
	case model.KindKnownVulnerability:
		return "Known Vulnerabilities"
	default:
		return "Other Issues"
	}
}

// bullet renders one finding with its variant-specific template.
func bullet(f model.Finding) string {
	switch v := f.(type) {
	case model.DependencyFreshnessFinding:
		line := fmt.Sprintf("  * %s: declared %s, latest stable %s [%s]",
			v.Dependency, orPlaceholder(v.DeclaredConstraint), orPlaceholder(v.LatestVersion), v.Severity)
		if v.SourceURL != "" {
			line += " " + v.SourceURL
		}
		return line + "\n"
	case model.StaticAnalysisFinding:
		line := fmt.Sprintf("  * [%s] %s: %s", tag(v.Severity), v.Check, v.Detail)
		if v.File != "" {
			line += fmt.Sprintf(" (%s)", v.File)
		}
		return line + "\n"
	case model.KnownVulnerabilityFinding:
		line := fmt.Sprintf("  * [%s] %s %s: %s", tag(v.Severity), v.AdvisoryID, v.Package, orPlaceholder(v.Title))
		if v.Link != "" {
			line += " " + v.Link
		}
		return line + "\n"
	case model.GenericIssueFinding:
		return fmt.Sprintf("  * [%s] %s\n", tag(v.Severity), v.Detail)
	default:
		return fmt.Sprintf("  * %s\n", f.Description())
	}
}

func writeFreshness(b *strings.Builder, records []model.FreshnessRecord) {
	fmt.Fprintf(b, "DEPENDENCY FRESHNESS (%d tracked)\n\n", len(records))
	if len(records) == 0 {
		b.WriteString("No dependencies tracked.\n\n")
		return
	}

	w := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPENDENCY\tDECLARED\tLATEST\tOUTDATED\tSEVERITY\tSOURCE")
	for _, r := range records {
		outdated := "no"
		if r.IsOutdated {
			outdated = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Dependency,
			orPlaceholder(r.DeclaredConstraint),
			orPlaceholder(r.LatestStableVersion),
			outdated,
			r.Severity,
			orPlaceholder(r.ResolvedSourceURL),
		)
	}
	w.Flush()
	b.WriteString("\n")
}

// RenderSummary serializes the run-level summary. Counts are reduced from the
// status of each report at render time; nothing is tracked separately.
func RenderSummary(reports []model.ScanReport) string {
	summary := model.SummaryReport{Reports: reports}

	var b strings.Builder
	b.WriteString(ruleHeavy + "\n")
	b.WriteString("SECURITY SCAN SUMMARY REPORT\n")
	b.WriteString(ruleHeavy + "\n\n")

	fmt.Fprintf(&b, "Total Repositories: %d\n", summary.Total())
	fmt.Fprintf(&b, "Successful Scans: %d\n", summary.Successful())
	fmt.Fprintf(&b, "Failed Scans: %d\n", summary.Failed())
	b.WriteString("\n" + ruleLight + "\n\n")

	for _, r := range summary.Reports {
		fmt.Fprintf(&b, "SUBJECT: %s\n", orPlaceholder(r.Subject))
		fmt.Fprintf(&b, "  Status: %s\n", strings.ToUpper(string(r.Status)))
		fmt.Fprintf(&b, "  Findings: %d\n", len(r.Findings))
		outdated := 0
		for _, rec := range r.Freshness {
			if rec.IsOutdated {
				outdated++
			}
		}
		fmt.Fprintf(&b, "  Tracked Dependencies: %d (%d outdated)\n", len(r.Freshness), outdated)
		b.WriteString("\n")
	}

	b.WriteString(ruleHeavy + "\n")
	b.WriteString("End of Summary Report\n")
	b.WriteString(ruleHeavy + "\n")

	return b.String()
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func tag(severity string) string {
	if severity == "" {
		return "info"
	}
	return severity
}
