package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ossrange/repoaudit/pkg/model"
)

// DefaultBaseURL is the Drupal packagist p2 metadata endpoint. Per-package
// documents live at {base}/{short_name}.json.
const DefaultBaseURL = "https://packages.drupal.org/files/packages/8/p2/drupal"

const defaultTimeout = 10 * time.Second

// ErrUnavailable indicates the registry could not be reached, returned a
// non-success status, or produced a document that could not be parsed. It is
// never fatal to a run: callers degrade the affected dependency to an
// unknown-freshness state.
var ErrUnavailable = errors.New("registry unavailable")

type cacheEntry struct {
	releases    []model.ReleaseRecord
	unavailable bool
}

func (e cacheEntry) result(name string) ([]model.ReleaseRecord, error) {
	if e.unavailable {
		return nil, fmt.Errorf("%w: %s (cached)", ErrUnavailable, name)
	}
	return e.releases, nil
}

// Client fetches per-dependency release metadata and memoizes results for the
// lifetime of one run. Failed lookups are cached too, so a dependency that was
// unavailable once is not retried within the same run. Safe for concurrent
// use: in-flight fetches are serialized per dependency name, so a slow lookup
// never blocks lookups for other names.
type Client struct {
	BaseURL string

	httpClient *http.Client
	logger     *logrus.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	inflight map[string]*sync.Mutex
}

// NewClient creates a registry client with a bounded per-request timeout.
// A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		cache:      make(map[string]cacheEntry),
		inflight:   make(map[string]*sync.Mutex),
	}
}

// packageDocument is the registry wire format: releases keyed by the full
// package name.
type packageDocument struct {
	Packages map[string][]releaseEntry `json:"packages"`
}

type releaseEntry struct {
	Version string `json:"version"`
	Source  struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"source"`
}

// FetchReleases returns the registry's release list for a dependency, in
// registry order. It issues at most one network request per distinct
// dependency name per run regardless of how often it is called; concurrent
// callers asking for the same name share a single fetch.
func (c *Client) FetchReleases(ctx context.Context, name string) ([]model.ReleaseRecord, error) {
	c.mu.Lock()
	if entry, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return entry.result(name)
	}
	lock, ok := c.inflight[name]
	if !ok {
		lock = &sync.Mutex{}
		c.inflight[name] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	// Another caller may have completed the fetch while we waited.
	c.mu.Lock()
	if entry, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return entry.result(name)
	}
	c.mu.Unlock()

	releases, err := c.fetch(ctx, name)

	c.mu.Lock()
	if err != nil {
		c.cache[name] = cacheEntry{unavailable: true}
	} else {
		c.cache[name] = cacheEntry{releases: releases}
	}
	delete(c.inflight, name)
	c.mu.Unlock()

	if err != nil {
		c.logger.WithField("dependency", name).WithError(err).Debug("Registry lookup failed")
		return nil, err
	}
	return releases, nil
}

func (c *Client) fetch(ctx context.Context, name string) ([]model.ReleaseRecord, error) {
	url := fmt.Sprintf("%s/%s.json", strings.TrimSuffix(c.BaseURL, "/"), ShortName(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrUnavailable, name, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrUnavailable, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: registry returned status %d for %s", ErrUnavailable, resp.StatusCode, name)
	}

	var doc packageDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding document for %s: %v", ErrUnavailable, name, err)
	}

	entries, ok := doc.Packages[name]
	if !ok {
		return nil, fmt.Errorf("%w: document for %s carries no release list", ErrUnavailable, name)
	}

	releases := make([]model.ReleaseRecord, 0, len(entries))
	for _, e := range entries {
		rec := model.ReleaseRecord{Version: e.Version}
		if e.Source.Type == "git" {
			rec.SourceReference = e.Source.URL
		}
		releases = append(releases, rec)
	}

	c.logger.WithFields(logrus.Fields{
		"dependency": name,
		"releases":   len(releases),
	}).Debug("Fetched release metadata")

	return releases, nil
}

// ShortName strips the ecosystem namespace prefix from a package name.
func ShortName(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
