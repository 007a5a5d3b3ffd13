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

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,venue,citationCount,isOpenAccess"

// SemanticScholar queries the Semantic Scholar academic graph API.
type SemanticScholar struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	apiKey    string
	userAgent string
}

// NewSemanticScholar returns a Semantic Scholar adapter owning its own
// rate limiter.
func NewSemanticScholar(client *http.Client, cfg types.SourcesConfig) *SemanticScholar {
	return &SemanticScholar{
		client:    client,
		limiter:   ratelimit.New(cfg.SemanticScholar.RateInterval),
		apiKey:    cfg.SemanticScholar.APIKey,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the adapter identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

// Tag returns the source tag stamped on every record.
func (s *SemanticScholar) Tag() types.SourceTag { return types.SourceSemanticScholar }

// Search queries the paper search endpoint and normalizes the results.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]types.SourceRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := httputil.Do(ctx, s.client, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.SourceRecord
	for _, paper := range sr.Data {
		if paper.Title == "" || paper.PaperID == "" {
			continue
		}

		r := types.SourceRecord{
			Source:   types.SourceSemanticScholar,
			SourceID: paper.PaperID,
			Title:    paper.Title,
			Abstract: paper.Abstract,
			Venue:    paper.Venue,
			DOI:      paper.ExternalIDs.DOI,
			PMID:     paper.ExternalIDs.PubMed,
		}

		for _, a := range paper.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}

		if paper.Year != nil && *paper.Year > 0 {
			r.Year = intPtr(*paper.Year)
		}
		if paper.CitationCount != nil {
			r.CitationCount = intPtr(*paper.CitationCount)
		}
		if paper.IsOpenAccess != nil {
			r.OpenAccess = boolPtr(*paper.IsOpenAccess)
		}

		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures. Numeric fields are pointers: the
// API returns null for papers it has no data for, and null must stay
// distinct from zero.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Venue         string              `json:"venue"`
	Year          *int                `json:"year"`
	CitationCount *int                `json:"citationCount"`
	IsOpenAccess  *bool               `json:"isOpenAccess"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
	ArXiv  string `json:"ArXiv"`
}
