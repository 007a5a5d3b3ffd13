// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources queries bibliographic APIs and normalizes their
// heterogeneous responses into SourceRecords. Each adapter owns its own
// rate limiter and translates one source's native payload shape; nothing
// outside this package ever sees a native response.
//
// See docs/ARCHITECTURE § Retrieval.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Source searches a single bibliographic API. Each adapter (PubMed,
// Semantic Scholar, Europe PMC) implements this interface.
type Source interface {
	Name() string
	Tag() types.SourceTag
	Search(ctx context.Context, query string, limit int) ([]types.SourceRecord, error)
}

// Diagnostic records one source's soft failure. The pipeline proceeds with
// whatever the remaining sources returned.
type Diagnostic struct {
	Source string
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Source, d.Err)
}

// Output holds the concatenated records from all sources and queries,
// pre-dedup, plus the diagnostics for every failed call.
type Output struct {
	Records     []types.SourceRecord
	Diagnostics []Diagnostic
}

// SearchAll fans out every query to every source concurrently and joins
// all calls before returning. A failed call contributes an empty result
// and a diagnostic, never an error: the pipeline must work with 0, 1, 2,
// or 3 responsive sources without special-casing. Warnings go to w.
func SearchAll(ctx context.Context, srcs []Source, queries []string, limit int, w io.Writer) Output {
	type callResult struct {
		records []types.SourceRecord
		err     error
		name    string
	}

	ch := make(chan callResult, len(srcs)*len(queries))
	var wg sync.WaitGroup

	for _, s := range srcs {
		for _, q := range queries {
			wg.Add(1)
			go func(s Source, q string) {
				defer wg.Done()
				records, err := s.Search(ctx, q, limit)
				ch <- callResult{records: records, err: err, name: s.Name()}
			}(s, q)
		}
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	for cr := range ch {
		if cr.err != nil {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{Source: cr.name, Err: cr.err})
			fmt.Fprintf(w, "warning: source %s failed: %v\n", cr.name, cr.err)
			continue
		}
		out.Records = append(out.Records, cr.records...)
	}
	return out
}

// Enabled builds the configured source adapters. The HTTP client carries
// the per-request timeout; each adapter gets its own limiter.
func Enabled(cfg types.SourcesConfig) []Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var srcs []Source
	if cfg.PubMed.Enabled {
		srcs = append(srcs, NewPubMed(client, cfg))
	}
	if cfg.SemanticScholar.Enabled {
		srcs = append(srcs, NewSemanticScholar(client, cfg))
	}
	if cfg.EuropePMC.Enabled {
		srcs = append(srcs, NewEuropePMC(client, cfg))
	}
	return srcs
}

// intPtr returns a pointer to v. Parsers use it for optional numeric fields.
func intPtr(v int) *int { return &v }

// boolPtr returns a pointer to v.
func boolPtr(v bool) *bool { return &v }
