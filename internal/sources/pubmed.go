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

// pubmedESearchBase and pubmedESummaryBase are the NCBI E-utilities
// endpoints. Declared as vars so tests can substitute an httptest server.
var (
	pubmedESearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedESummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMed queries the NCBI E-utilities in two steps: esearch for PMIDs,
// then esummary for metadata. Without an API key NCBI allows 3 req/s, so
// the default rate interval is 350ms.
type PubMed struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	apiKey    string
	email     string
	userAgent string
}

// NewPubMed returns a PubMed adapter owning its own rate limiter.
func NewPubMed(client *http.Client, cfg types.SourcesConfig) *PubMed {
	interval := cfg.PubMed.RateInterval
	return &PubMed{
		client:    client,
		limiter:   ratelimit.New(interval),
		apiKey:    cfg.PubMed.APIKey,
		email:     cfg.ContactEmail,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the adapter identifier.
func (p *PubMed) Name() string { return "pubmed" }

// Tag returns the source tag stamped on every record.
func (p *PubMed) Tag() types.SourceTag { return types.SourcePubMed }

// Search runs esearch then esummary and normalizes the summaries.
func (p *PubMed) Search(ctx context.Context, query string, limit int) ([]types.SourceRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}
	if limit <= 0 {
		limit = 50
	}

	ids, err := p.esearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return p.esummary(ctx, ids)
}

func (p *PubMed) esearch(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(limit)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	p.commonParams(params)

	var sr pubmedESearchResponse
	if err := p.get(ctx, pubmedESearchBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	return sr.ESearchResult.IDList, nil
}

func (p *PubMed) esummary(ctx context.Context, ids []string) ([]types.SourceRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}
	p.commonParams(params)

	var sr pubmedESummaryResponse
	if err := p.get(ctx, pubmedESummaryBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	var records []types.SourceRecord
	for _, uid := range sr.Result.UIDs {
		raw, ok := sr.Result.Docs[uid]
		if !ok {
			continue
		}

		// An individual malformed summary is skipped, not fatal.
		var doc pubmedDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		if doc.Title == "" {
			continue
		}

		r := types.SourceRecord{
			Source:   types.SourcePubMed,
			SourceID: uid,
			PMID:     uid,
			Title:    strings.TrimSpace(doc.Title),
			Venue:    doc.FullJournalName,
		}

		for _, a := range doc.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}

		if year := parsePubYear(doc.PubDate); year > 0 {
			r.Year = intPtr(year)
		}

		for _, aid := range doc.ArticleIDs {
			if aid.IDType == "doi" && aid.Value != "" {
				r.DOI = aid.Value
			}
		}

		records = append(records, r)
	}
	return records, nil
}

func (p *PubMed) commonParams(params url.Values) {
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}
	if p.email != "" {
		params.Set("email", p.email)
	}
}

// get applies the rate limiter, issues the request, and decodes JSON into v.
func (p *PubMed) get(ctx context.Context, reqURL string, v any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := httputil.Do(ctx, p.client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// parsePubYear extracts the year from an E-utilities pubdate string
// (e.g. "2023 Jan 15", "2021 Nov-Dec", "1998").
func parsePubYear(pubdate string) int {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil || year < 1000 {
		return 0
	}
	return year
}

// NCBI E-utilities JSON structures. The esummary result object maps each
// UID to its summary; docs are decoded individually so one malformed entry
// cannot fail the whole response.
type pubmedESearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedESummaryResponse struct {
	Result pubmedResultSet `json:"result"`
}

type pubmedResultSet struct {
	UIDs []string
	Docs map[string]json.RawMessage
}

// UnmarshalJSON splits the "uids" array from the per-UID summary objects.
func (r *pubmedResultSet) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	if raw, ok := all["uids"]; ok {
		if err := json.Unmarshal(raw, &r.UIDs); err != nil {
			return err
		}
		delete(all, "uids")
	}
	r.Docs = all
	return nil
}

type pubmedDocSummary struct {
	Title           string            `json:"title"`
	PubDate         string            `json:"pubdate"`
	FullJournalName string            `json:"fulljournalname"`
	Authors         []pubmedAuthor    `json:"authors"`
	ArticleIDs      []pubmedArticleID `json:"articleids"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
