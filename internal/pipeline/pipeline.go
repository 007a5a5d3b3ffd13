// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one evidence-retrieval run: query drafting,
// concurrent source fan-out, merge, ranking, narrative extraction for the
// top of the corpus, and tier categorization. Every external collaborator
// may fail independently; the pipeline always completes with a
// best-effort corpus. The only fatal condition is an unusable
// configuration, surfaced at construction.
//
// See docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/merge"
	"github.com/pdiddy/evidence-engine/internal/rank"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/internal/tier"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const defaultTopN = 30

// Collaborator is the generative-text surface the pipeline depends on.
// *llm.Collaborator implements it; tests supply fakes.
type Collaborator interface {
	rank.Assessor
	QueryVariants(ctx context.Context, project types.ProjectContext) ([]string, error)
	ExtractNarrative(ctx context.Context, paper types.RankedPaper) (keyFindings []string, methodologyNotes string, limitations []string)
}

// Pipeline holds the wired stages for one project run.
type Pipeline struct {
	srcs   []sources.Source
	collab Collaborator
	cfg    types.PipelineConfig
	w      io.Writer
}

// Result is the downstream consumer interface: the two synthesis tiers
// plus the full ranked corpus.
type Result struct {
	PrimaryLiterature   []types.ProcessedArticle
	SecondaryLiterature []types.ProcessedArticle

	// Queries holds the search strings actually sent to the sources.
	Queries []string

	// Ranked is the full ranked corpus, including papers excluded from
	// both tiers.
	Ranked []types.RankedPaper

	// CorpusSize is len(Ranked), carried separately for consumers that
	// drop the corpus itself.
	CorpusSize int

	DupsRemoved int
	Diagnostics []sources.Diagnostic
}

// New wires a pipeline. Running with no sources configured is the one
// unrecoverable configuration error in this core. collab may be nil;
// every collaborator-dependent stage then uses its local default.
func New(cfg types.PipelineConfig, srcs []sources.Source, collab Collaborator, w io.Writer) (*Pipeline, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("no bibliographic sources configured")
	}
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{srcs: srcs, collab: collab, cfg: cfg, w: w}, nil
}

// Run executes the full pipeline for one project and always returns a
// result: degraded sources and collaborators shrink the corpus, they do
// not abort the run.
func (p *Pipeline) Run(ctx context.Context, project types.ProjectContext) (*Result, error) {
	queries := p.queryVariants(ctx, project)
	fmt.Fprintf(p.w, "searching %d source(s) with %d quer%s\n",
		len(p.srcs), len(queries), pluralY(len(queries)))

	searched := sources.SearchAll(ctx, p.srcs, queries, p.cfg.Sources.MaxResults, p.w)
	fmt.Fprintf(p.w, "retrieved %d record(s), %d source failure(s)\n",
		len(searched.Records), len(searched.Diagnostics))

	merged := merge.Merge(searched.Records)
	fmt.Fprintf(p.w, "merged to %d unique paper(s) (%d duplicates removed)\n",
		len(merged.Papers), merged.DupsRemoved)

	var assessor rank.Assessor
	if p.collab != nil {
		assessor = p.collab
	}
	ranked := rank.Rank(ctx, merged.Papers, project, assessor, p.cfg.Ranking.AssessWorkers, p.w)

	topN := p.cfg.Ranking.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	promoted := ranked
	if len(promoted) > topN {
		promoted = promoted[:topN]
	}

	articles := p.processArticles(ctx, promoted)
	tiers := tier.Categorize(articles)

	return &Result{
		PrimaryLiterature:   tiers.Primary,
		SecondaryLiterature: tiers.Secondary,
		Queries:             queries,
		Ranked:              ranked,
		CorpusSize:          len(ranked),
		DupsRemoved:         merged.DupsRemoved,
		Diagnostics:         searched.Diagnostics,
	}, nil
}

// queryVariants asks the collaborator for query drafts; on any failure
// the project-derived base query is the single variant.
func (p *Pipeline) queryVariants(ctx context.Context, project types.ProjectContext) []string {
	base := baseQuery(project)
	if p.collab == nil {
		return []string{base}
	}

	variants, err := p.collab.QueryVariants(ctx, project)
	if err != nil || len(variants) == 0 {
		fmt.Fprintf(p.w, "warning: query drafting failed, using base query: %v\n", err)
		return []string{base}
	}
	return variants
}

// processArticles promotes the top ranked papers to ProcessedArticles,
// running narrative extraction concurrently across them. A failed
// extraction degrades that one article to placeholder text inside the
// collaborator; promotion itself never fails.
func (p *Pipeline) processArticles(ctx context.Context, promoted []types.RankedPaper) []types.ProcessedArticle {
	articles := make([]types.ProcessedArticle, len(promoted))

	var wg sync.WaitGroup
	for i, rp := range promoted {
		wg.Add(1)
		go func(i int, rp types.RankedPaper) {
			defer wg.Done()

			a := types.ProcessedArticle{RankedPaper: rp}
			if rp.OpenAccess != nil {
				a.FullTextAvailable = *rp.OpenAccess
			}

			if p.collab != nil {
				a.KeyFindings, a.MethodologyNotes, a.Limitations = p.collab.ExtractNarrative(ctx, rp)
			} else {
				placeholder := llm.Placeholder(rp.Abstract)
				a.KeyFindings = []string{placeholder}
				a.MethodologyNotes = placeholder
				a.Limitations = []string{placeholder}
			}

			articles[i] = a
		}(i, rp)
	}
	wg.Wait()

	return articles
}

// baseQuery builds a keyword query from the project context for use when
// query drafting is unavailable.
func baseQuery(project types.ProjectContext) string {
	parts := []string{project.ClinicalProblem, project.TargetPopulation}
	parts = append(parts, project.IntendedOutcomes...)

	var fields []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			fields = append(fields, s)
		}
	}
	if len(fields) == 0 {
		return project.Title
	}
	return strings.Join(fields, " ")
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
