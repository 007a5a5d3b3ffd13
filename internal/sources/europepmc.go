// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// europePMCSearchBase is the Europe PMC REST search endpoint. Declared as
// a var so tests can substitute an httptest server.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC queries the Europe PMC REST API, which aggregates MEDLINE,
// preprints, and systematic-review sources.
type EuropePMC struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	email     string
	userAgent string
}

// NewEuropePMC returns a Europe PMC adapter owning its own rate limiter.
func NewEuropePMC(client *http.Client, cfg types.SourcesConfig) *EuropePMC {
	return &EuropePMC{
		client:    client,
		limiter:   ratelimit.New(cfg.EuropePMC.RateInterval),
		email:     cfg.ContactEmail,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the adapter identifier.
func (e *EuropePMC) Name() string { return "europepmc" }

// Tag returns the source tag stamped on every record.
func (e *EuropePMC) Tag() types.SourceTag { return types.SourceEuropePMC }

// Search queries the REST endpoint and normalizes the results.
func (e *EuropePMC) Search(ctx context.Context, query string, limit int) ([]types.SourceRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Europe PMC query")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {strconv.Itoa(limit)},
	}
	if e.email != "" {
		params.Set("email", e.email)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := httputil.Do(ctx, e.client, req)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	var records []types.SourceRecord
	for _, item := range er.ResultList.Result {
		if item.Title == "" || item.ID == "" {
			continue
		}

		r := types.SourceRecord{
			Source:   types.SourceEuropePMC,
			SourceID: item.ID,
			DOI:      item.DOI,
			PMID:     item.PMID,
			Title:    strings.TrimSpace(item.Title),
			Abstract: item.AbstractText,
			Venue:    item.JournalTitle,
			Authors:  splitAuthorString(item.AuthorString),
		}

		if year, err := strconv.Atoi(item.PubYear); err == nil && year > 0 {
			r.Year = intPtr(year)
		}
		if item.CitedByCount != nil {
			r.CitationCount = intPtr(*item.CitedByCount)
		}
		switch item.IsOpenAccess {
		case "Y":
			r.OpenAccess = boolPtr(true)
		case "N":
			r.OpenAccess = boolPtr(false)
		}

		records = append(records, r)
	}
	return records, nil
}

// splitAuthorString breaks Europe PMC's single author string
// ("Smith J, Jones A." ) into display names.
func splitAuthorString(s string) []string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID           string `json:"id"`
	PMID         string `json:"pmid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	AbstractText string `json:"abstractText"`
	CitedByCount *int   `json:"citedByCount"`
	IsOpenAccess string `json:"isOpenAccess"`
}
