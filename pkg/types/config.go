package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for one bibliographic source adapter.
type SourceConfig struct {
	// Enabled controls whether this source participates in retrieval.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RateInterval is the minimum spacing between requests to this
	// source (e.g. 350ms for PubMed without a key).
	RateInterval time.Duration `json:"rate_interval" yaml:"rate_interval"`
}

// SourcesConfig holds settings for the retrieval stage.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-source result limit (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	PubMed          SourceConfig `json:"pubmed" yaml:"pubmed"`
	SemanticScholar SourceConfig `json:"semantic_scholar" yaml:"semantic_scholar"`
	EuropePMC       SourceConfig `json:"europepmc" yaml:"europepmc"`

	// ContactEmail is sent to APIs that ask for a contact address
	// (Europe PMC, NCBI polite pool).
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
}

// AIConfig holds shared settings for stages that call a generative-text API.
type AIConfig struct {
	// Provider selects the backend: "claude" or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (provider-specific).
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-call timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RankingConfig holds settings for the ranking and promotion stages.
type RankingConfig struct {
	// TopN is the number of ranked papers promoted to narrative
	// extraction (default 30).
	TopN int `json:"top_n" yaml:"top_n"`

	// AssessWorkers bounds concurrent relevance-assessment calls
	// (default 5).
	AssessWorkers int `json:"assess_workers" yaml:"assess_workers"`
}

// CorpusConfig holds settings for the corpus store.
type CorpusConfig struct {
	// Dir is the base directory for stored runs (contains index/ and
	// export/).
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for one pipeline run.
type PipelineConfig struct {
	Sources SourcesConfig `json:"sources" yaml:"sources"`
	AI      AIConfig      `json:"ai" yaml:"ai"`
	Ranking RankingConfig `json:"ranking" yaml:"ranking"`
	Corpus  CorpusConfig  `json:"corpus" yaml:"corpus"`
}
