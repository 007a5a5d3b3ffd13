// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes one stored run to dir/export/run-[id].yaml and
// returns the written path. id 0 exports the most recent run.
func (s *Store) ExportYAML(ctx context.Context, id int64) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(run.ID, "yaml", data)
}

// ExportJSON writes one stored run to dir/export/run-[id].json and
// returns the written path. id 0 exports the most recent run.
func (s *Store) ExportJSON(ctx context.Context, id int64) (string, error) {
	run, err := s.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(run.ID, "json", data)
}

func (s *Store) writeExport(id int64, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.corpusDir, exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run-%d.%s", id, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
