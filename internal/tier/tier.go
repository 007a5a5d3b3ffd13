// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tier partitions processed articles into primary and secondary
// evidence tiers by fixed score thresholds. Articles scoring at or below
// the exclusion threshold appear in neither list; they remain in the full
// ranked corpus upstream.
package tier

import (
	"sort"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Output holds the two synthesis tiers, each sorted descending by score.
type Output struct {
	Primary   []types.ProcessedArticle
	Secondary []types.ProcessedArticle
}

// Categorize partitions articles by types.TierFor: primary holds scores
// above 0.7, secondary holds scores above 0.4 up to and including 0.7.
func Categorize(articles []types.ProcessedArticle) Output {
	var out Output
	for _, a := range articles {
		switch types.TierFor(a.RelevanceScore) {
		case types.TierPrimary:
			out.Primary = append(out.Primary, a)
		case types.TierSecondary:
			out.Secondary = append(out.Secondary, a)
		}
	}

	sortByScore(out.Primary)
	sortByScore(out.Secondary)
	return out
}

func sortByScore(articles []types.ProcessedArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].RelevanceScore > articles[j].RelevanceScore
	})
}
