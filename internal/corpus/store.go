// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists pipeline runs to SQLite so results can be
// reported on and exported after the fact.
//
// See docs/ARCHITECTURE § Corpus Store.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/internal/pipeline"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	indexDir  = "index"
	exportDir = "export"
	dbFile    = "corpus.db"
)

// Store manages the corpus SQLite database.
type Store struct {
	db        *sql.DB
	corpusDir string
}

// NewStore opens or creates the corpus database at dir/index/corpus.db,
// creating the schema if it does not exist.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, corpusDir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			project_title TEXT,
			clinical_problem TEXT,
			queries TEXT,
			corpus_size INTEGER,
			dups_removed INTEGER,
			diagnostics TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			tier TEXT NOT NULL,
			rank INTEGER NOT NULL,
			source TEXT,
			source_id TEXT,
			doi TEXT,
			pmid TEXT,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			year INTEGER,
			venue TEXT,
			citation_count INTEGER,
			llm_relevance REAL,
			recency_weight REAL,
			citation_weight REAL,
			relevance_score REAL,
			key_findings TEXT,
			methodology_notes TEXT,
			limitations TEXT,
			full_text_available INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_run_id ON articles(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_tier ON articles(run_id, tier)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists one pipeline result and returns the new run ID. Only
// tiered articles are stored; the excluded tail of the ranked corpus is
// summarized by corpus_size.
func (s *Store) SaveRun(ctx context.Context, project types.ProjectContext, res *pipeline.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	queriesJSON, _ := json.Marshal(res.Queries)
	diags := make([]string, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		diags[i] = d.String()
	}
	diagsJSON, _ := json.Marshal(diags)

	r, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, project_title, clinical_problem, queries, corpus_size, dups_removed, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), project.Title, project.ClinicalProblem,
		string(queriesJSON), res.CorpusSize, res.DupsRemoved, string(diagsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (run_id, tier, rank, source, source_id, doi, pmid, title, abstract,
			authors, year, venue, citation_count, llm_relevance, recency_weight, citation_weight,
			relevance_score, key_findings, methodology_notes, limitations, full_text_available)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(tier types.EvidenceTier, articles []types.ProcessedArticle) error {
		for i, a := range articles {
			authorsJSON, _ := json.Marshal(a.Authors)
			findingsJSON, _ := json.Marshal(a.KeyFindings)
			limitsJSON, _ := json.Marshal(a.Limitations)
			_, err := stmt.ExecContext(ctx,
				runID, string(tier), i+1, string(a.Source), a.SourceID, a.DOI, a.PMID,
				a.Title, a.Abstract, string(authorsJSON), nullableInt(a.Year), a.Venue,
				nullableInt(a.CitationCount), a.LLMRelevance, a.RecencyWeight,
				a.CitationWeight, a.RelevanceScore, string(findingsJSON),
				a.MethodologyNotes, string(limitsJSON), a.FullTextAvailable,
			)
			if err != nil {
				return fmt.Errorf("inserting article %s: %w", a.SourceID, err)
			}
		}
		return nil
	}

	if err := insert(types.TierPrimary, res.PrimaryLiterature); err != nil {
		return 0, err
	}
	if err := insert(types.TierSecondary, res.SecondaryLiterature); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID              int64     `json:"id" yaml:"id"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	ProjectTitle    string    `json:"project_title" yaml:"project_title"`
	ClinicalProblem string    `json:"clinical_problem" yaml:"clinical_problem"`
	Queries         []string  `json:"queries" yaml:"queries"`
	CorpusSize      int       `json:"corpus_size" yaml:"corpus_size"`
	DupsRemoved     int       `json:"dups_removed" yaml:"dups_removed"`
	Diagnostics     []string  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// StoredRun is a persisted run rehydrated for reporting and export.
type StoredRun struct {
	RunSummary          `yaml:",inline"`
	PrimaryLiterature   []types.ProcessedArticle `json:"primary_literature" yaml:"primary_literature"`
	SecondaryLiterature []types.ProcessedArticle `json:"secondary_literature" yaml:"secondary_literature"`
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, project_title, clinical_problem, queries, corpus_size, dups_removed, diagnostics
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		rs, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// LoadRun rehydrates one run with its tiered articles. id 0 loads the
// most recent run.
func (s *Store) LoadRun(ctx context.Context, id int64) (*StoredRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, project_title, clinical_problem, queries, corpus_size, dups_removed, diagnostics
		 FROM runs WHERE id = CASE WHEN ? > 0 THEN ? ELSE (SELECT MAX(id) FROM runs) END`, id, id)

	rs, err := scanRun(row)
	if err == sql.ErrNoRows {
		if id > 0 {
			return nil, fmt.Errorf("run %d not found", id)
		}
		return nil, fmt.Errorf("no stored runs")
	}
	if err != nil {
		return nil, err
	}

	run := &StoredRun{RunSummary: rs}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tier, source, source_id, doi, pmid, title, abstract, authors, year, venue,
			citation_count, llm_relevance, recency_weight, citation_weight, relevance_score,
			key_findings, methodology_notes, limitations, full_text_available
		 FROM articles WHERE run_id = ? ORDER BY tier, rank`, rs.ID)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a             types.ProcessedArticle
			tier, source  string
			authorsJSON   sql.NullString
			year          sql.NullInt64
			citationCount sql.NullInt64
			findingsJSON  sql.NullString
			limitsJSON    sql.NullString
		)
		if err := rows.Scan(
			&tier, &source, &a.SourceID, &a.DOI, &a.PMID, &a.Title, &a.Abstract,
			&authorsJSON, &year, &a.Venue, &citationCount,
			&a.LLMRelevance, &a.RecencyWeight, &a.CitationWeight, &a.RelevanceScore,
			&findingsJSON, &a.MethodologyNotes, &limitsJSON, &a.FullTextAvailable,
		); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}

		a.Source = types.SourceTag(source)
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &a.Authors)
		}
		if year.Valid {
			y := int(year.Int64)
			a.Year = &y
		}
		if citationCount.Valid {
			c := int(citationCount.Int64)
			a.CitationCount = &c
		}
		if findingsJSON.Valid {
			json.Unmarshal([]byte(findingsJSON.String), &a.KeyFindings)
		}
		if limitsJSON.Valid {
			json.Unmarshal([]byte(limitsJSON.String), &a.Limitations)
		}

		switch types.EvidenceTier(tier) {
		case types.TierPrimary:
			run.PrimaryLiterature = append(run.PrimaryLiterature, a)
		case types.TierSecondary:
			run.SecondaryLiterature = append(run.SecondaryLiterature, a)
		}
	}
	return run, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var (
		rs          RunSummary
		createdAt   string
		queriesJSON sql.NullString
		diagsJSON   sql.NullString
	)
	err := row.Scan(&rs.ID, &createdAt, &rs.ProjectTitle, &rs.ClinicalProblem,
		&queriesJSON, &rs.CorpusSize, &rs.DupsRemoved, &diagsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return rs, err
		}
		return rs, fmt.Errorf("scanning run: %w", err)
	}

	rs.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if queriesJSON.Valid {
		json.Unmarshal([]byte(queriesJSON.String), &rs.Queries)
	}
	if diagsJSON.Valid {
		json.Unmarshal([]byte(diagsJSON.String), &rs.Diagnostics)
	}
	return rs, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
