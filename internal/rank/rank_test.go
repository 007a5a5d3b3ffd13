// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func intPtr(v int) *int { return &v }

// --- mock assessor ---

type mockAssessor struct {
	scores map[string]float64
	err    error
}

func (m *mockAssessor) AssessRelevance(_ context.Context, p types.UnifiedPaper, _ types.ProjectContext) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.scores[p.SourceID], nil
}

func paper(id string, year, citations *int) types.UnifiedPaper {
	return types.UnifiedPaper{SourceRecord: types.SourceRecord{
		SourceID:      id,
		Title:         "Paper " + id,
		Year:          year,
		CitationCount: citations,
	}}
}

// --- pure scoring ---

func TestRecencyWeight(t *testing.T) {
	current := time.Now().Year()
	tests := []struct {
		name string
		year *int
		want float64
	}{
		{"current year", intPtr(current), 1.0},
		{"future year", intPtr(current + 1), 1.0},
		{"five years old", intPtr(current - 5), 0.5},
		{"ten years old", intPtr(current - 10), 0.25},
		{"fifty years old hits floor", intPtr(current - 50), 0.1},
		{"unknown year is neutral", nil, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecencyWeight(tt.year, current)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RecencyWeight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCitationWeight(t *testing.T) {
	tests := []struct {
		name  string
		count *int
		want  float64
	}{
		{"unknown", nil, 0.3},
		{"zero", intPtr(0), 0.3},
		{"negative", intPtr(-3), 0.3},
		{"one", intPtr(1), 0.3},
		{"ten", intPtr(10), 0.5},
		{"hundred", intPtr(100), 0.7},
		{"thousand", intPtr(1000), 0.9},
		{"ten thousand", intPtr(10000), 1.0},
		{"huge clamps at one", intPtr(50000000), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CitationWeight(tt.count)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CitationWeight(%v) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}

func TestCompositeScoreMonotonicInRelevance(t *testing.T) {
	prev := -1.0
	for llm := 0.0; llm <= 1.0; llm += 0.05 {
		score := CompositeScore(llm, 0.7, 0.4)
		if score < prev {
			t.Fatalf("score decreased: CompositeScore(%v) = %v < %v", llm, score, prev)
		}
		prev = score
	}
}

func TestCompositeScoreClamped(t *testing.T) {
	if got := CompositeScore(1, 1, 1); got != 1.0 {
		t.Errorf("CompositeScore(1,1,1) = %v, want 1.0", got)
	}
	if got := CompositeScore(0, 0, 0); got != 0.0 {
		t.Errorf("CompositeScore(0,0,0) = %v, want 0.0", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	p := paper("1", intPtr(2019), intPtr(42))
	a := Score(p, 0.8, 2026)
	b := Score(p, 0.8, 2026)
	if a.RelevanceScore != b.RelevanceScore {
		t.Errorf("same inputs produced %v and %v", a.RelevanceScore, b.RelevanceScore)
	}
}

// --- Rank ---

func TestRankSortsDescending(t *testing.T) {
	current := time.Now().Year()
	papers := []types.UnifiedPaper{
		paper("low", intPtr(current-30), intPtr(0)),
		paper("high", intPtr(current), intPtr(1000)),
		paper("mid", intPtr(current-8), intPtr(25)),
	}
	assessor := &mockAssessor{scores: map[string]float64{"low": 0.1, "high": 0.95, "mid": 0.5}}

	ranked := Rank(context.Background(), papers, types.ProjectContext{}, assessor, 2, io.Discard)

	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].RelevanceScore > ranked[i-1].RelevanceScore {
			t.Errorf("not sorted descending at %d: %v > %v", i, ranked[i].RelevanceScore, ranked[i-1].RelevanceScore)
		}
	}
	if ranked[0].SourceID != "high" {
		t.Errorf("top paper = %q, want %q", ranked[0].SourceID, "high")
	}
}

func TestRankAssessorFailureDefaultsNeutral(t *testing.T) {
	papers := []types.UnifiedPaper{paper("1", intPtr(2020), nil)}
	assessor := &mockAssessor{err: fmt.Errorf("model unavailable")}

	ranked := Rank(context.Background(), papers, types.ProjectContext{}, assessor, 1, io.Discard)

	if ranked[0].LLMRelevance != 0.5 {
		t.Errorf("LLMRelevance = %v, want neutral 0.5", ranked[0].LLMRelevance)
	}
}

func TestRankInvalidScoreDefaultsNeutral(t *testing.T) {
	tests := []float64{-0.2, 1.7, math.NaN()}
	for _, bad := range tests {
		papers := []types.UnifiedPaper{paper("1", nil, nil)}
		assessor := &mockAssessor{scores: map[string]float64{"1": bad}}

		ranked := Rank(context.Background(), papers, types.ProjectContext{}, assessor, 1, io.Discard)
		if ranked[0].LLMRelevance != 0.5 {
			t.Errorf("score %v: LLMRelevance = %v, want 0.5", bad, ranked[0].LLMRelevance)
		}
	}
}

func TestRankNilAssessor(t *testing.T) {
	papers := []types.UnifiedPaper{paper("1", nil, nil)}
	ranked := Rank(context.Background(), papers, types.ProjectContext{}, nil, 1, io.Discard)
	if ranked[0].LLMRelevance != 0.5 {
		t.Errorf("LLMRelevance = %v, want 0.5", ranked[0].LLMRelevance)
	}
}

func TestValidScore(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0, true}, {1, true}, {0.5, true},
		{-0.01, false}, {1.01, false}, {math.NaN(), false},
	}
	for _, tt := range tests {
		if got := ValidScore(tt.score); got != tt.want {
			t.Errorf("ValidScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
