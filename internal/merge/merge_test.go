// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestMergeByDOI(t *testing.T) {
	// Same DOI with different titles must still collapse.
	records := []types.SourceRecord{
		{Source: types.SourcePubMed, SourceID: "1", DOI: "10.1000/ABC", Title: "Original title"},
		{Source: types.SourceEuropePMC, SourceID: "2", DOI: " 10.1000/abc ", Title: "Title with publisher suffix"},
	}

	out := Merge(records)
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(out.Papers))
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d, want 1", out.DupsRemoved)
	}
	// First-seen record is the representative.
	if out.Papers[0].SourceID != "1" {
		t.Errorf("representative SourceID = %q, want %q", out.Papers[0].SourceID, "1")
	}
}

func TestMergeByPMID(t *testing.T) {
	records := []types.SourceRecord{
		{Source: types.SourcePubMed, SourceID: "36000001", PMID: "36000001", Title: "Paper"},
		{Source: types.SourceSemanticScholar, SourceID: "s2-x", PMID: "36000001", Title: "Paper", Abstract: "From S2."},
	}

	out := Merge(records)
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(out.Papers))
	}
	// Backfill: representative lacked an abstract, the duplicate had one.
	if out.Papers[0].Abstract != "From S2." {
		t.Errorf("Abstract = %q, want backfilled value", out.Papers[0].Abstract)
	}
}

func TestMergeByNormalizedTitle(t *testing.T) {
	records := []types.SourceRecord{
		{Source: types.SourcePubMed, SourceID: "1", Title: "Insulin therapy in T2DM"},
		{Source: types.SourceEuropePMC, SourceID: "2", Title: "insulin therapy in t2dm "},
	}

	out := Merge(records)
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(out.Papers))
	}
}

func TestMergeFuzzyTitle(t *testing.T) {
	// Token sets differ only by punctuation and casing.
	records := []types.SourceRecord{
		{SourceID: "1", Title: "Continuous glucose monitoring improves outcomes in adults with type 2 diabetes mellitus today"},
		{SourceID: "2", Title: "Continuous glucose monitoring improves outcomes in adults with type 2 diabetes mellitus"},
	}

	out := Merge(records)
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1 (fuzzy match)", len(out.Papers))
	}
}

func TestMergeIdentifiedRecordNeverTitleMatched(t *testing.T) {
	// A record carrying a DOI is only ever matched by identifier, so an
	// identical title on an identifier-less record does not collapse it.
	records := []types.SourceRecord{
		{SourceID: "1", DOI: "10.1000/xyz", Title: "Shared title"},
		{SourceID: "2", Title: "Shared title"},
	}

	out := Merge(records)
	if len(out.Papers) != 2 {
		t.Fatalf("len(Papers) = %d, want 2", len(out.Papers))
	}
}

func TestMergeIdempotent(t *testing.T) {
	base := []types.SourceRecord{
		{SourceID: "1", DOI: "10.1/a", Title: "Alpha", Year: intPtr(2020)},
		{SourceID: "2", PMID: "123", Title: "Beta"},
		{SourceID: "3", Title: "Gamma delta epsilon"},
	}

	once := Merge(base)
	doubled := Merge(append(append([]types.SourceRecord{}, base...), base...))

	if len(once.Papers) != 3 {
		t.Fatalf("single merge: len = %d, want 3", len(once.Papers))
	}
	if len(doubled.Papers) != 3 {
		t.Errorf("doubled merge: len = %d, want 3", len(doubled.Papers))
	}
	if doubled.DupsRemoved != 3 {
		t.Errorf("doubled merge: DupsRemoved = %d, want 3", doubled.DupsRemoved)
	}
}

func TestMergeOrderIndependentSet(t *testing.T) {
	records := []types.SourceRecord{
		{SourceID: "1", DOI: "10.1/a", Title: "Alpha"},
		{SourceID: "2", DOI: "10.1/a", Title: "Alpha again"},
		{SourceID: "3", PMID: "99", Title: "Beta"},
		{SourceID: "4", Title: "Gamma"},
	}
	reversed := make([]types.SourceRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	a := Merge(records)
	b := Merge(reversed)
	if len(a.Papers) != len(b.Papers) {
		t.Errorf("forward %d papers, reversed %d papers", len(a.Papers), len(b.Papers))
	}
}

func TestMergeCrossIdentifierBackfill(t *testing.T) {
	// The PubMed record has only a PMID; the S2 duplicate carries both
	// identifiers. After backfill a third record matching by DOI must
	// also collapse.
	records := []types.SourceRecord{
		{SourceID: "1", PMID: "123", Title: "Paper"},
		{SourceID: "2", PMID: "123", DOI: "10.1/match", Title: "Paper"},
		{SourceID: "3", DOI: "10.1/match", Title: "Paper from elsewhere"},
	}

	out := Merge(records)
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(out.Papers))
	}
	if out.Papers[0].DOI != "10.1/match" {
		t.Errorf("DOI = %q, want backfilled identifier", out.Papers[0].DOI)
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1000/ABC", "10.1000/abc"},
		{" https://doi.org/10.1000/abc ", "10.1000/abc"},
		{"doi:10.1000/abc", "10.1000/abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Insulin therapy in T2DM", "insulin therapy in t2dm"},
		{"  Insulin   therapy, in T2DM! ", "insulin therapy in t2dm"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
