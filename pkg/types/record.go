// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine pipeline.
// Records move through four stages, each producing a new value rather than
// mutating the prior one:
//
//	SourceRecord → UnifiedPaper → RankedPaper → ProcessedArticle
//
// See docs/ARCHITECTURE § Data Structures.
package types

// SourceTag identifies which bibliographic source produced a record.
type SourceTag string

const (
	SourcePubMed          SourceTag = "pubmed"
	SourceSemanticScholar SourceTag = "semantic_scholar"
	SourceEuropePMC       SourceTag = "europepmc"
)

// SourceRecord is one bibliographic item as returned by a single source,
// before deduplication. Optional fields use pointers so the parsers can
// distinguish absent from zero.
type SourceRecord struct {
	// Source identifies which adapter produced this record.
	Source SourceTag `json:"source" yaml:"source"`

	// SourceID is the source-local identifier (PMID, Semantic Scholar
	// paper ID, Europe PMC ID). Two records with different SourceIDs may
	// still describe the same work; identity is the merger's job.
	SourceID string `json:"source_id" yaml:"source_id"`

	// DOI is the Digital Object Identifier, if the source reported one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier, if the source reported one.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract, if available.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year; nil when the source omitted it.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or venue name, if available.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the number of citing works; nil when unknown.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// OpenAccess reports whether the source flagged the work as openly
	// readable; nil when the source does not say.
	OpenAccess *bool `json:"open_access,omitempty" yaml:"open_access,omitempty"`
}

// UnifiedPaper is a SourceRecord that survived deduplication and represents
// a unique underlying work. The representative is the first-seen record of
// its duplicate group with empty fields backfilled from later duplicates.
type UnifiedPaper struct {
	SourceRecord `yaml:",inline"`
}

// RankedPaper extends a UnifiedPaper with the composite relevance score and
// its three components. RelevanceScore is a deterministic pure function of
// the components: re-ranking unchanged inputs reproduces identical scores.
type RankedPaper struct {
	UnifiedPaper `yaml:",inline"`

	// LLMRelevance is the externally supplied semantic-relevance judgment
	// in [0,1]. Defaults to 0.5 when the assessment call fails.
	LLMRelevance float64 `json:"llm_relevance" yaml:"llm_relevance"`

	// RecencyWeight is the half-life-5-year decay weight in [0.1,1].
	RecencyWeight float64 `json:"recency_weight" yaml:"recency_weight"`

	// CitationWeight is the logarithmic citation-impact weight in [0.3,1].
	CitationWeight float64 `json:"citation_weight" yaml:"citation_weight"`

	// RelevanceScore is 0.6*LLMRelevance + 0.25*RecencyWeight +
	// 0.15*CitationWeight, clamped to [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// ProcessedArticle is a RankedPaper enriched with narrative fields from the
// generative-text collaborator. Only the top N ranked papers are promoted;
// narrative extraction is the expensive step.
type ProcessedArticle struct {
	RankedPaper `yaml:",inline"`

	// KeyFindings lists the main findings extracted from the paper.
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`

	// MethodologyNotes summarizes the study design and methods.
	MethodologyNotes string `json:"methodology_notes" yaml:"methodology_notes"`

	// Limitations lists the stated or apparent limitations.
	Limitations []string `json:"limitations" yaml:"limitations"`

	// FullTextAvailable reports whether full text was reachable.
	FullTextAvailable bool `json:"full_text_available" yaml:"full_text_available"`
}

// EvidenceTier classifies a processed article for downstream synthesis.
type EvidenceTier string

const (
	// TierPrimary holds articles with RelevanceScore > 0.7.
	TierPrimary EvidenceTier = "primary"

	// TierSecondary holds articles with 0.4 < RelevanceScore <= 0.7.
	TierSecondary EvidenceTier = "secondary"

	// TierExcluded marks articles with RelevanceScore <= 0.4. Excluded
	// articles appear in neither synthesis list but remain in the full
	// ranked corpus.
	TierExcluded EvidenceTier = "excluded"
)

// TierFor returns the evidence tier for a relevance score.
func TierFor(score float64) EvidenceTier {
	switch {
	case score > 0.7:
		return TierPrimary
	case score > 0.4:
		return TierSecondary
	default:
		return TierExcluded
	}
}

// ProjectContext describes the research project the corpus is assembled
// for. It is embedded in every relevance-assessment prompt.
type ProjectContext struct {
	// Title is the working title of the proposal.
	Title string `json:"title" yaml:"title"`

	// ClinicalProblem states the problem the project addresses.
	ClinicalProblem string `json:"clinical_problem" yaml:"clinical_problem"`

	// TargetPopulation describes the population under study.
	TargetPopulation string `json:"target_population" yaml:"target_population"`

	// IntendedOutcomes lists the outcomes the project aims to measure.
	IntendedOutcomes []string `json:"intended_outcomes" yaml:"intended_outcomes"`
}
