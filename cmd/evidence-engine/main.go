// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the evidence-engine CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/internal/secrets"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the evidence-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "evidence-engine",
	Short: "Literature evidence retrieval and ranking for clinical projects",
	Long: `evidence-engine retrieves candidate literature for a clinical evidence
project from multiple bibliographic sources, merges and deduplicates the
results, ranks them by relevance to the project, and categorizes the top
papers into primary and secondary evidence tiers.

Each stage of a run is driven by the retrieve subcommand; stored runs are
inspected and exported with the report subcommand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./evidence-engine.yaml or ~/.config/evidence-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("evidence-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "evidence-engine"))
		}
	}

	viper.SetEnvPrefix("EVIDENCE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the full stage configuration from viper values
// and loaded secrets. Flags that override individual values are handled by
// the subcommands.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("sources.timeout", 60*time.Second)
	viper.SetDefault("sources.user_agent", "evidence-engine/"+version)
	viper.SetDefault("sources.max_results", 50)
	viper.SetDefault("sources.pubmed.enabled", true)
	viper.SetDefault("sources.pubmed.rate_interval", 350*time.Millisecond)
	viper.SetDefault("sources.semantic_scholar.enabled", true)
	viper.SetDefault("sources.semantic_scholar.rate_interval", time.Second)
	viper.SetDefault("sources.europepmc.enabled", true)
	viper.SetDefault("sources.europepmc.rate_interval", 200*time.Millisecond)
	viper.SetDefault("ai.provider", "claude")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ranking.top_n", 30)
	viper.SetDefault("ranking.assess_workers", 5)
	viper.SetDefault("corpus.dir", "corpus")

	cfg := types.PipelineConfig{
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: viper.GetString("sources.user_agent"),
			},
			MaxResults: viper.GetInt("sources.max_results"),
			PubMed: types.SourceConfig{
				Enabled:      viper.GetBool("sources.pubmed.enabled"),
				APIKey:       secretDefault("ncbi-api-key", viper.GetString("sources.pubmed.api_key")),
				RateInterval: viper.GetDuration("sources.pubmed.rate_interval"),
			},
			SemanticScholar: types.SourceConfig{
				Enabled:      viper.GetBool("sources.semantic_scholar.enabled"),
				APIKey:       secretDefault("semantic-scholar-api-key", viper.GetString("sources.semantic_scholar.api_key")),
				RateInterval: viper.GetDuration("sources.semantic_scholar.rate_interval"),
			},
			EuropePMC: types.SourceConfig{
				Enabled:      viper.GetBool("sources.europepmc.enabled"),
				RateInterval: viper.GetDuration("sources.europepmc.rate_interval"),
			},
			ContactEmail: secretDefault("europepmc-email", viper.GetString("sources.contact_email")),
		},
		AI: types.AIConfig{
			Provider: viper.GetString("ai.provider"),
			Model:    viper.GetString("ai.model"),
			Timeout:  viper.GetDuration("ai.timeout"),
		},
		Ranking: types.RankingConfig{
			TopN:          viper.GetInt("ranking.top_n"),
			AssessWorkers: viper.GetInt("ranking.assess_workers"),
		},
		Corpus: types.CorpusConfig{
			Dir: viper.GetString("corpus.dir"),
		},
	}

	switch cfg.AI.Provider {
	case "openai":
		cfg.AI.APIKey = secretDefault("openai-api-key", viper.GetString("ai.api_key"))
	default:
		cfg.AI.APIKey = secretDefault("anthropic-api-key", viper.GetString("ai.api_key"))
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
