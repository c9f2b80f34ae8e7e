// Package agent drives the per-subject scan pipeline: working copy, manifest,
// freshness classification, finding collaborators, aggregation, rendering.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ossrange/repoaudit/pkg/aggregate"
	"github.com/ossrange/repoaudit/pkg/freshness"
	"github.com/ossrange/repoaudit/pkg/gitrepo"
	"github.com/ossrange/repoaudit/pkg/manifest"
	"github.com/ossrange/repoaudit/pkg/model"
	"github.com/ossrange/repoaudit/pkg/output"
	"github.com/ossrange/repoaudit/pkg/report"
)

// ReleaseFetcher supplies release metadata per dependency, memoized per run.
type ReleaseFetcher interface {
	FetchReleases(ctx context.Context, name string) ([]model.ReleaseRecord, error)
}

// WorkingCopies checks subject repositories out for the duration of a scan.
type WorkingCopies interface {
	Clone(ctx context.Context, url string) (string, error)
	Cleanup(dir string)
}

// StaticAnalyzer is the static-analysis collaborator.
type StaticAnalyzer interface {
	Scan(root string) ([]model.Finding, error)
}

// AdvisoryLookup is the known-vulnerability collaborator.
type AdvisoryLookup interface {
	Audit(ctx context.Context, dir string) ([]model.Finding, error)
}

// Summarizer produces an optional free-text narrative for a finished report.
type Summarizer interface {
	Summarize(ctx context.Context, reportText string) (string, error)
}

// Options bundle the collaborators for one agent. Summarizer may be nil.
type Options struct {
	Registry   ReleaseFetcher
	Repos      WorkingCopies
	Static     StaticAnalyzer
	Advisories AdvisoryLookup
	Summarizer Summarizer
	OutputDir  string
	KeepCopies bool
	Logger     *logrus.Logger
}

// Agent processes subjects strictly sequentially. Every failure is degraded
// to the smallest possible scope: a subject that fails entirely still yields
// an errored report entry, so the summary's subject count always equals the
// input count.
type Agent struct {
	opts Options
}

func New(opts Options) *Agent {
	return &Agent{opts: opts}
}

// Run scans every subject and writes the per-subject and summary reports.
// It returns the reports in input order together with the rendered summary.
func (a *Agent) Run(ctx context.Context, subjects []string) ([]model.ScanReport, string, error) {
	logger := a.opts.Logger

	reports := make([]model.ScanReport, 0, len(subjects))
	for i, url := range subjects {
		logger.WithFields(logrus.Fields{
			"subject":  url,
			"position": fmt.Sprintf("%d/%d", i+1, len(subjects)),
		}).Info("Processing repository")

		rep := a.processSubject(ctx, url)
		reports = append(reports, rep)

		path := report.SubjectPath(a.opts.OutputDir, rep.Subject, rep.GeneratedAt)
		if err := report.Save(path, output.Render(rep)); err != nil {
			logger.WithField("subject", rep.Subject).WithError(err).Error("Failed to save report")
		} else {
			logger.WithField("path", path).Info("Saved report")
		}
	}

	summaryText := output.RenderSummary(reports)
	now := time.Now().UTC()
	if err := report.Save(report.SummaryPath(a.opts.OutputDir, now), summaryText); err != nil {
		return reports, summaryText, fmt.Errorf("saving summary report: %w", err)
	}
	if err := report.SaveJSON(report.SummaryJSONPath(a.opts.OutputDir, now), model.SummaryReport{Reports: reports}); err != nil {
		logger.WithError(err).Warn("Failed to save summary JSON")
	}

	return reports, summaryText, nil
}

func (a *Agent) processSubject(ctx context.Context, url string) model.ScanReport {
	logger := a.opts.Logger.WithField("subject", url)

	dir, err := a.opts.Repos.Clone(ctx, url)
	if err != nil {
		logger.WithError(err).Error("Clone failed")
		return aggregate.Errored(gitrepo.RepoName(url), fmt.Errorf("clone failed: %w", err))
	}
	if !a.opts.KeepCopies {
		defer a.opts.Repos.Cleanup(dir)
	}
	subject := gitrepo.RepoName(url)

	man, err := manifest.Load(dir)
	if err != nil {
		logger.WithError(err).Error("Manifest missing or unreadable")
		return aggregate.Errored(subject, err)
	}

	var fresh []model.FreshnessRecord
	if man.IsDrupalProject() {
		logger.WithField("core", man.CoreVersion()).Info("Checking contrib dependencies")
		for _, decl := range man.Declarations() {
			releases, fetchErr := a.opts.Registry.FetchReleases(ctx, decl.Name)
			if fetchErr != nil {
				// Degraded lookup: classify against an empty history.
				releases = nil
			}
			fresh = append(fresh, freshness.Classify(decl, releases))
		}
	} else {
		logger.Info("Not a Drupal project; skipping freshness checks")
	}

	var external []model.Finding
	var hardFailures []string

	if a.opts.Static != nil {
		staticFindings, scanErr := a.opts.Static.Scan(dir)
		if scanErr != nil {
			hardFailures = append(hardFailures, fmt.Sprintf("static analysis: %v", scanErr))
		} else {
			external = append(external, staticFindings...)
		}
	}

	if a.opts.Advisories != nil {
		vulnFindings, auditErr := a.opts.Advisories.Audit(ctx, dir)
		if auditErr != nil {
			hardFailures = append(hardFailures, fmt.Sprintf("advisory lookup: %v", auditErr))
		} else {
			external = append(external, vulnFindings...)
		}
	}

	rep := aggregate.Aggregate(subject, fresh, external, hardFailures)

	if a.opts.Summarizer != nil {
		narrative, sumErr := a.opts.Summarizer.Summarize(ctx, output.Render(rep))
		if sumErr != nil {
			logger.WithError(sumErr).Warn("Summarization unavailable")
		} else {
			rep.Summary = narrative
		}
	}

	return rep
}
