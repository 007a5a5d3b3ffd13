// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const semanticBody = `{
	"total": 3,
	"data": [
		{
			"paperId": "abc123",
			"title": "Telehealth interventions for glycemic control",
			"abstract": "We review telehealth programs.",
			"venue": "JAMA",
			"year": 2022,
			"citationCount": 140,
			"isOpenAccess": true,
			"authors": [{"authorId": "1", "name": "R. Patel"}],
			"externalIds": {"DOI": "10.1001/jama.2022.1234", "PubMed": "35001234"}
		},
		{
			"paperId": "def456",
			"title": "Untitled dataset entry",
			"year": null,
			"citationCount": null,
			"authors": [],
			"externalIds": {}
		},
		{
			"paperId": "",
			"title": "Entry without a paper id"
		}
	]
}`

func semanticTestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() {
		semanticAPIBase = old
		ts.Close()
	})
	return ts
}

func TestSemanticScholarSearch(t *testing.T) {
	ts := semanticTestServer(t, semanticBody, http.StatusOK)

	s := NewSemanticScholar(ts.Client(), types.SourcesConfig{})
	records, err := s.Search(context.Background(), "telehealth diabetes", 20)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	// The entry with an empty paperId is skipped.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.Source != types.SourceSemanticScholar {
		t.Errorf("Source = %q", r.Source)
	}
	if r.DOI != "10.1001/jama.2022.1234" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if r.PMID != "35001234" {
		t.Errorf("PMID = %q", r.PMID)
	}
	if r.CitationCount == nil || *r.CitationCount != 140 {
		t.Errorf("CitationCount = %v, want 140", r.CitationCount)
	}
	if r.OpenAccess == nil || !*r.OpenAccess {
		t.Errorf("OpenAccess = %v, want true", r.OpenAccess)
	}

	// Null numerics stay absent rather than becoming zero.
	if records[1].Year != nil {
		t.Errorf("records[1].Year = %v, want nil", records[1].Year)
	}
	if records[1].CitationCount != nil {
		t.Errorf("records[1].CitationCount = %v, want nil", records[1].CitationCount)
	}
}

func TestSemanticScholarSearchAuthFailure(t *testing.T) {
	ts := semanticTestServer(t, `{"error": "forbidden"}`, http.StatusForbidden)

	s := NewSemanticScholar(ts.Client(), types.SourcesConfig{})
	if _, err := s.Search(context.Background(), "query", 20); err == nil {
		t.Error("Search against 403 returned nil error")
	}
}

func TestSemanticScholarSearchMalformedPayload(t *testing.T) {
	ts := semanticTestServer(t, `<html>not json</html>`, http.StatusOK)

	s := NewSemanticScholar(ts.Client(), types.SourcesConfig{})
	if _, err := s.Search(context.Background(), "query", 20); err == nil {
		t.Error("Search with malformed payload returned nil error")
	}
}

func TestSemanticScholarLimitClamp(t *testing.T) {
	var gotLimit string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	s := NewSemanticScholar(ts.Client(), types.SourcesConfig{})
	if _, err := s.Search(context.Background(), "query", 500); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotLimit != "100" {
		t.Errorf("limit param = %q, want 100", gotLimit)
	}
}
