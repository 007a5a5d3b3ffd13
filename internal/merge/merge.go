// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge collapses records from multiple bibliographic sources into
// a set of unique papers. Matching precedence is strict: shared DOI, then
// shared PMID, then normalized-title match for records that carry neither
// identifier. The surviving set does not depend on input ordering.
//
// Representative policy: the first-seen record of a duplicate group is
// kept, and its empty fields are backfilled from later duplicates.
//
// See docs/ARCHITECTURE § Merge.
package merge

import (
	"strings"
	"unicode"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// fuzzyTitleThreshold is the minimum token-overlap (Jaccard) for two
// normalized titles to be considered the same work.
const fuzzyTitleThreshold = 0.9

// Output holds the unique papers and the number of duplicates removed.
type Output struct {
	Papers      []types.UnifiedPaper
	DupsRemoved int
}

// Merge deduplicates the concatenated output of all source adapters.
func Merge(records []types.SourceRecord) Output {
	var (
		kept   []types.UnifiedPaper
		byDOI  = make(map[string]int)
		byPMID = make(map[string]int)
		// Title indexes cover only papers lacking both identifiers:
		// a record with a DOI or PMID is never matched by title.
		byTitle     = make(map[string]int)
		titleTokens = make(map[int]map[string]bool)
		removed     int
	)

	for _, r := range records {
		doi := NormalizeDOI(r.DOI)
		pmid := strings.TrimSpace(r.PMID)

		idx := -1
		switch {
		case doi != "" && hasKey(byDOI, doi):
			idx = byDOI[doi]
		case pmid != "" && hasKey(byPMID, pmid):
			idx = byPMID[pmid]
		case doi == "" && pmid == "":
			idx = matchByTitle(r.Title, byTitle, titleTokens)
		}

		if idx >= 0 {
			backfill(&kept[idx], r)
			// A duplicate may carry an identifier the representative
			// lacked; index it so later records can match.
			if d := NormalizeDOI(kept[idx].DOI); d != "" && !hasKey(byDOI, d) {
				byDOI[d] = idx
			}
			if p := strings.TrimSpace(kept[idx].PMID); p != "" && !hasKey(byPMID, p) {
				byPMID[p] = idx
			}
			removed++
			continue
		}

		idx = len(kept)
		kept = append(kept, types.UnifiedPaper{SourceRecord: r})
		if doi != "" {
			byDOI[doi] = idx
		}
		if pmid != "" {
			byPMID[pmid] = idx
		}
		if doi == "" && pmid == "" {
			if key := NormalizeTitle(r.Title); key != "" {
				byTitle[key] = idx
				titleTokens[idx] = tokenSet(key)
			}
		}
	}

	return Output{Papers: kept, DupsRemoved: removed}
}

// matchByTitle returns the index of a kept identifier-less paper whose
// title matches exactly (after normalization) or fuzzily, or -1.
func matchByTitle(title string, byTitle map[string]int, titleTokens map[int]map[string]bool) int {
	key := NormalizeTitle(title)
	if key == "" {
		return -1
	}
	if idx, ok := byTitle[key]; ok {
		return idx
	}

	tokens := tokenSet(key)
	for idx, keptTokens := range titleTokens {
		if tokenOverlap(tokens, keptTokens) >= fuzzyTitleThreshold {
			return idx
		}
	}
	return -1
}

// backfill fills empty fields of the representative from a duplicate.
func backfill(dst *types.UnifiedPaper, src types.SourceRecord) {
	if dst.DOI == "" && src.DOI != "" {
		dst.DOI = src.DOI
	}
	if dst.PMID == "" && src.PMID != "" {
		dst.PMID = src.PMID
	}
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == nil && src.Year != nil {
		dst.Year = src.Year
	}
	if dst.Venue == "" && src.Venue != "" {
		dst.Venue = src.Venue
	}
	if dst.CitationCount == nil && src.CitationCount != nil {
		dst.CitationCount = src.CitationCount
	}
	if dst.OpenAccess == nil && src.OpenAccess != nil {
		dst.OpenAccess = src.OpenAccess
	}
}

// NormalizeDOI lowercases a DOI and strips surrounding whitespace and the
// resolver prefix, so "https://doi.org/10.1/X" and "10.1/x " compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return doi
}

// NormalizeTitle reduces a title to lowercase alphanumeric words.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		set[tok] = true
	}
	return set
}

// tokenOverlap returns the Jaccard similarity of two token sets.
func tokenOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}
