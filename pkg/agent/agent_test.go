package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossrange/repoaudit/pkg/model"
	"github.com/ossrange/repoaudit/pkg/registry"
)

const composerJSON = `{
	"require": {
		"drupal/core-recommended": "^10.2",
		"drupal/token": "^1.5",
		"drupal/pathauto": "^1.12",
		"drupal/unreachable": "^2.0"
	}
}`

type fakeCopies struct {
	root     string
	manifest string
	cloneErr error
	cleaned  []string
}

func (f *fakeCopies) Clone(ctx context.Context, url string) (string, error) {
	if f.cloneErr != nil {
		return "", f.cloneErr
	}
	dir := filepath.Join(f.root, filepath.Base(url))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if f.manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, "composer.json"), []byte(f.manifest), 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func (f *fakeCopies) Cleanup(dir string) { f.cleaned = append(f.cleaned, dir) }

type fakeRegistry struct {
	releases map[string][]model.ReleaseRecord
	fetched  []string
}

func (f *fakeRegistry) FetchReleases(ctx context.Context, name string) ([]model.ReleaseRecord, error) {
	f.fetched = append(f.fetched, name)
	rels, ok := f.releases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnavailable, name)
	}
	return rels, nil
}

type fakeStatic struct {
	findings []model.Finding
	err      error
}

func (f *fakeStatic) Scan(root string) ([]model.Finding, error) { return f.findings, f.err }

type fakeAdvisories struct {
	findings []model.Finding
	err      error
}

func (f *fakeAdvisories) Audit(ctx context.Context, dir string) ([]model.Finding, error) {
	return f.findings, f.err
}

type fakeSummarizer struct {
	narrative string
	err       error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return f.narrative, f.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestAgent(t *testing.T, opts Options) *Agent {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	return New(opts)
}

func defaultRegistry() *fakeRegistry {
	return &fakeRegistry{releases: map[string][]model.ReleaseRecord{
		"drupal/token": {
			{Version: "1.15.0", SourceReference: "https://git.drupalcode.org/project/token.git"},
			{Version: "1.14.0"},
		},
		"drupal/pathauto": {
			{Version: "1.12.0"},
		},
	}}
}

func TestRunCompletedSubject(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry:   defaultRegistry(),
		Repos:      copies,
		Static:     &fakeStatic{},
		Advisories: &fakeAdvisories{},
		Summarizer: &fakeSummarizer{narrative: "All quiet."},
	})

	reports, summaryText, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, "site", rep.Subject)
	assert.Equal(t, model.StatusCompleted, rep.Status)
	assert.Equal(t, "All quiet.", rep.Summary)
	require.Len(t, rep.Freshness, 3, "declarations in stable order")
	assert.Equal(t, "drupal/pathauto", rep.Freshness[0].Dependency)
	assert.Equal(t, "drupal/token", rep.Freshness[1].Dependency)
	assert.Equal(t, "drupal/unreachable", rep.Freshness[2].Dependency)

	// The unreachable dependency degrades, it does not fail the subject.
	assert.Empty(t, rep.Freshness[2].LatestStableVersion)
	assert.False(t, rep.Freshness[2].IsOutdated)
	assert.Equal(t, model.UpdateUnknown, rep.Freshness[2].Severity)

	// token ^1.5 vs 1.15.0 is a minor update.
	assert.True(t, rep.Freshness[1].IsOutdated)
	assert.Equal(t, model.UpdateMinor, rep.Freshness[1].Severity)

	assert.Contains(t, summaryText, "Total Repositories: 1")
	assert.Contains(t, summaryText, "Successful Scans: 1")
	assert.Len(t, copies.cleaned, 1, "working copy removed after scan")
}

func TestRunCloneFailureYieldsErroredReport(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), cloneErr: errors.New("remote unreachable")}
	agent := newTestAgent(t, Options{
		Registry: defaultRegistry(),
		Repos:    copies,
	})

	reports, summaryText, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.Equal(t, model.StatusErrored, reports[0].Status)
	require.Len(t, reports[0].Findings, 1)
	assert.Contains(t, reports[0].Findings[0].Description(), "clone failed")
	assert.Contains(t, summaryText, "Failed Scans: 1")
}

func TestRunMissingManifestYieldsErroredReport(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir()} // no composer.json written
	agent := newTestAgent(t, Options{
		Registry: defaultRegistry(),
		Repos:    copies,
	})

	reports, _, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusErrored, reports[0].Status)
}

func TestRunCollaboratorHardFailure(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry:   defaultRegistry(),
		Repos:      copies,
		Static:     &fakeStatic{err: errors.New("sweep crashed")},
		Advisories: &fakeAdvisories{},
	})

	reports, _, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)

	rep := reports[0]
	assert.Equal(t, model.StatusFailed, rep.Status)

	var generic []model.GenericIssueFinding
	for _, f := range rep.Findings {
		if g, ok := f.(model.GenericIssueFinding); ok {
			generic = append(generic, g)
		}
	}
	require.Len(t, generic, 1)
	assert.Contains(t, generic[0].Detail, "sweep crashed")
}

func TestRunSummarizerFailureDegrades(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry:   defaultRegistry(),
		Repos:      copies,
		Summarizer: &fakeSummarizer{err: errors.New("endpoint down")},
	})

	reports, _, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, reports[0].Status)
	assert.Empty(t, reports[0].Summary)
}

func TestRunBatchAlwaysYieldsOneReportPerSubject(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry: defaultRegistry(),
		Repos:    copies,
	})

	subjects := []string{
		"https://github.com/acme/site-a",
		"https://github.com/acme/site-b",
		"https://github.com/acme/site-c",
	}
	reports, _, err := agent.Run(context.Background(), subjects)
	require.NoError(t, err)
	assert.Len(t, reports, len(subjects))
}

func TestRunWritesReportsToOutputDir(t *testing.T) {
	outDir := t.TempDir()
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry:  defaultRegistry(),
		Repos:     copies,
		OutputDir: outDir,
	})

	_, _, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	// one subject report, one summary text, one summary JSON
	require.Len(t, entries, 3)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Regexp(t, `^site_\d{8}_\d{6}\.txt$`, names[0])
	assert.Regexp(t, `^summary_report_\d{8}_\d{6}\.json$`, names[1])
	assert.Regexp(t, `^summary_report_\d{8}_\d{6}\.txt$`, names[2])
}

func TestRunKeepCopies(t *testing.T) {
	copies := &fakeCopies{root: t.TempDir(), manifest: composerJSON}
	agent := newTestAgent(t, Options{
		Registry:   defaultRegistry(),
		Repos:      copies,
		KeepCopies: true,
	})

	_, _, err := agent.Run(context.Background(), []string{"https://github.com/acme/site"})
	require.NoError(t, err)
	assert.Empty(t, copies.cleaned)
}
