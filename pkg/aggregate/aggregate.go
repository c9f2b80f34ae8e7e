// Package aggregate folds freshness results and externally produced findings
// into a single report per subject.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/ossrange/repoaudit/pkg/model"
)

// Aggregate builds the report for one subject. It is a pure function of its
// inputs: freshness records keep their declaration order, findings keep the
// order each collaborator supplied them in and are grouped by variant in the
// fixed display order, so identical inputs render byte-identical output.
//
// Each hard collaborator failure becomes a single GenericIssueFinding and
// degrades the status to failed; a partial report is always preferable to no
// report.
func Aggregate(subject string, fresh []model.FreshnessRecord, external []model.Finding, hardFailures []string) model.ScanReport {
	report := model.ScanReport{
		Subject:     subject,
		GeneratedAt: time.Now().UTC(),
		Status:      model.StatusCompleted,
		Freshness:   append([]model.FreshnessRecord(nil), fresh...),
	}

	var findings []model.Finding
	for _, rec := range fresh {
		if !rec.IsOutdated {
			continue
		}
		findings = append(findings, model.DependencyFreshnessFinding{
			Dependency:         rec.Dependency,
			DeclaredConstraint: rec.DeclaredConstraint,
			LatestVersion:      rec.LatestStableVersion,
			Severity:           rec.Severity,
			SourceURL:          rec.ResolvedSourceURL,
		})
	}

	findings = append(findings, external...)

	if len(hardFailures) > 0 {
		report.Status = model.StatusFailed
		for _, msg := range hardFailures {
			findings = append(findings, model.GenericIssueFinding{
				Detail:   fmt.Sprintf("collaborator failure: %s", msg),
				Severity: "high",
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Kind() < findings[j].Kind()
	})
	report.Findings = findings

	return report
}

// Errored builds the degraded report entry for a subject that failed before
// any collaborator could run, so the summary's subject count always equals
// the input count.
func Errored(subject string, reason error) model.ScanReport {
	return model.ScanReport{
		Subject:     subject,
		GeneratedAt: time.Now().UTC(),
		Status:      model.StatusErrored,
		Findings: []model.Finding{
			model.GenericIssueFinding{
				Detail:   fmt.Sprintf("scan aborted: %v", reason),
				Severity: "high",
			},
		},
	}
}
