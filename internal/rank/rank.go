// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank assigns each unique paper a composite relevance score and
// sorts the corpus. The score blends an externally supplied semantic
// judgment with derived recency and citation weights; the arithmetic is a
// pure function of its inputs, so re-ranking unchanged inputs reproduces
// identical scores. The only side effect in this package is the
// relevance-assessment call itself.
//
// See docs/ARCHITECTURE § Ranking.
package rank

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// neutralRelevance is substituted when the assessment call fails or
// returns an unusable score.
const neutralRelevance = 0.5

// Assessor supplies the semantic-relevance judgment for one paper.
// Implementations call a generative-text service; the ranker treats the
// returned score as opaque.
type Assessor interface {
	AssessRelevance(ctx context.Context, paper types.UnifiedPaper, project types.ProjectContext) (float64, error)
}

// Rank scores every paper and returns them sorted descending by composite
// score. Assessment calls run concurrently, bounded by workers; a failed
// or invalid assessment degrades that one paper to the neutral default
// and is reported to w, never escalated.
func Rank(ctx context.Context, papers []types.UnifiedPaper, project types.ProjectContext, assessor Assessor, workers int, w io.Writer) []types.RankedPaper {
	if workers <= 0 {
		workers = 5
	}

	currentYear := time.Now().Year()
	ranked := make([]types.RankedPaper, len(papers))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, workers)
	)

	for i, p := range papers {
		wg.Add(1)
		go func(i int, p types.UnifiedPaper) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			relevance := neutralRelevance
			if assessor != nil {
				score, err := assessor.AssessRelevance(ctx, p, project)
				switch {
				case err != nil:
					mu.Lock()
					fmt.Fprintf(w, "warning: relevance assessment failed for %q: %v\n", p.Title, err)
					mu.Unlock()
				case !ValidScore(score):
					mu.Lock()
					fmt.Fprintf(w, "warning: relevance score %v out of range for %q\n", score, p.Title)
					mu.Unlock()
				default:
					relevance = score
				}
			}

			ranked[i] = Score(p, relevance, currentYear)
		}(i, p)
	}
	wg.Wait()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// Score computes the composite for one paper from an already-validated
// relevance judgment. Pure.
func Score(p types.UnifiedPaper, llmRelevance float64, currentYear int) types.RankedPaper {
	recency := RecencyWeight(p.Year, currentYear)
	citation := CitationWeight(p.CitationCount)
	return types.RankedPaper{
		UnifiedPaper:   p,
		LLMRelevance:   llmRelevance,
		RecencyWeight:  recency,
		CitationWeight: citation,
		RelevanceScore: CompositeScore(llmRelevance, recency, citation),
	}
}

// ValidScore reports whether a relevance judgment is numeric and in [0,1].
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0 && score <= 1
}

// RecencyWeight is a half-life-5-year exponential decay floored at 0.1.
// Current and future years weigh 1.0; an unknown year weighs the neutral
// 0.5 rather than being penalized.
func RecencyWeight(year *int, currentYear int) float64 {
	if year == nil {
		return 0.5
	}
	age := currentYear - *year
	if age <= 0 {
		return 1.0
	}
	return math.Max(0.1, math.Pow(0.5, float64(age)/5.0))
}

// CitationWeight maps citation counts onto [0.3,1.0] logarithmically:
// 0 or 1 citations weigh the 0.3 baseline, 10 → 0.5, 100 → 0.7,
// 1000 → 0.9, 10000 and beyond → 1.0.
func CitationWeight(count *int) float64 {
	if count == nil || *count <= 0 {
		return 0.3
	}
	return math.Min(1.0, 0.3+0.2*math.Log10(float64(*count)))
}

// CompositeScore blends the three weights 0.6/0.25/0.15, clamped to [0,1].
func CompositeScore(llmRelevance, recency, citation float64) float64 {
	score := 0.6*llmRelevance + 0.25*recency + 0.15*citation
	return math.Max(0, math.Min(1, score))
}
