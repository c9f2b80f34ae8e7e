package vulnscan

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ossrange/repoaudit/pkg/execx"
	"github.com/ossrange/repoaudit/pkg/model"
)

// Auditor looks up published advisories for a project's installed packages by
// shelling out to composer.
type Auditor struct {
	runner execx.Runner
	logger *logrus.Logger
}

func NewAuditor(runner execx.Runner, logger *logrus.Logger) *Auditor {
	if runner == nil {
		runner = execx.OSRunner{}
	}
	return &Auditor{runner: runner, logger: logger}
}

type auditDocument struct {
	Advisories map[string][]advisory `json:"advisories"`
}

type advisory struct {
	AdvisoryID       string `json:"advisoryId"`
	CVE              string `json:"cve"`
	Title            string `json:"title"`
	Link             string `json:"link"`
	Severity         string `json:"severity"`
	AffectedVersions string `json:"affectedVersions"`
}

// Audit runs `composer audit` inside dir and maps its advisories into
// findings. A missing composer binary yields an empty sequence. composer
// exits non-zero when advisories exist, so the output is parsed before the
// exit status is judged.
func (a *Auditor) Audit(ctx context.Context, dir string) ([]model.Finding, error) {
	if _, err := a.runner.LookPath("composer"); err != nil {
		a.logger.Debug("composer not found in PATH; skipping advisory lookup")
		return nil, nil
	}

	out, runErr := a.runner.Run(ctx, dir, "composer", "audit", "--format=json", "--no-interaction")

	var doc auditDocument
	if err := json.Unmarshal(out, &doc); err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, err
	}

	names := make([]string, 0, len(doc.Advisories))
	for name := range doc.Advisories {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []model.Finding
	for _, name := range names {
		for _, adv := range doc.Advisories[name] {
			id := adv.CVE
			if id == "" {
				id = adv.AdvisoryID
			}
			findings = append(findings, model.KnownVulnerabilityFinding{
				Package:    name,
				Installed:  adv.AffectedVersions,
				AdvisoryID: id,
				Title:      adv.Title,
				Severity:   adv.Severity,
				Link:       adv.Link,
			})
		}
	}

	a.logger.WithField("advisories", len(findings)).Debug("Composer audit finished")
	return findings, nil
}
