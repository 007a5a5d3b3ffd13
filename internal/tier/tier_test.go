// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tier

import (
	"fmt"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func article(id string, score float64) types.ProcessedArticle {
	return types.ProcessedArticle{
		RankedPaper: types.RankedPaper{
			UnifiedPaper:   types.UnifiedPaper{SourceRecord: types.SourceRecord{SourceID: id}},
			RelevanceScore: score,
		},
	}
}

func TestCategorizePartition(t *testing.T) {
	articles := []types.ProcessedArticle{
		article("a", 0.95),
		article("b", 0.71),
		article("c", 0.70), // boundary: exactly 0.7 is secondary
		article("d", 0.55),
		article("e", 0.41),
		article("f", 0.40), // boundary: exactly 0.4 is excluded
		article("g", 0.10),
	}

	out := Categorize(articles)

	if len(out.Primary) != 2 {
		t.Errorf("len(Primary) = %d, want 2", len(out.Primary))
	}
	if len(out.Secondary) != 3 {
		t.Errorf("len(Secondary) = %d, want 3", len(out.Secondary))
	}

	for _, a := range out.Primary {
		if a.RelevanceScore <= 0.7 {
			t.Errorf("primary article %s has score %v <= 0.7", a.SourceID, a.RelevanceScore)
		}
	}
	for _, a := range out.Secondary {
		if a.RelevanceScore <= 0.4 || a.RelevanceScore > 0.7 {
			t.Errorf("secondary article %s has score %v outside (0.4, 0.7]", a.SourceID, a.RelevanceScore)
		}
	}

	// Union of tiers plus excluded equals the input set with no overlap.
	seen := make(map[string]int)
	for _, a := range articles {
		excluded := true
		for _, p := range out.Primary {
			if p.SourceID == a.SourceID {
				seen[a.SourceID]++
				excluded = false
			}
		}
		for _, s := range out.Secondary {
			if s.SourceID == a.SourceID {
				seen[a.SourceID]++
				excluded = false
			}
		}
		if excluded {
			seen[a.SourceID]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("article %s appears in %d partitions, want 1", id, n)
		}
	}
}

func TestCategorizeResortsDescending(t *testing.T) {
	articles := []types.ProcessedArticle{
		article("low", 0.72),
		article("high", 0.99),
		article("mid", 0.85),
	}

	out := Categorize(articles)
	if len(out.Primary) != 3 {
		t.Fatalf("len(Primary) = %d, want 3", len(out.Primary))
	}
	for i := 1; i < len(out.Primary); i++ {
		if out.Primary[i].RelevanceScore > out.Primary[i-1].RelevanceScore {
			t.Errorf("primary not sorted at %d", i)
		}
	}
}

func TestCategorizeEmpty(t *testing.T) {
	out := Categorize(nil)
	if len(out.Primary) != 0 || len(out.Secondary) != 0 {
		t.Errorf("Categorize(nil) = %d/%d articles", len(out.Primary), len(out.Secondary))
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  types.EvidenceTier
	}{
		{0.71, types.TierPrimary},
		{0.70, types.TierSecondary},
		{0.41, types.TierSecondary},
		{0.40, types.TierExcluded},
		{0.0, types.TierExcluded},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.score), func(t *testing.T) {
			if got := types.TierFor(tt.score); got != tt.want {
				t.Errorf("TierFor(%v) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}
