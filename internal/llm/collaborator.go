// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// queryPromptTmpl asks the model to draft search query variants for the
// project. The response contract is {"queries": ["...", ...]}.
var queryPromptTmpl = template.Must(template.New("queries").Parse(`You are a medical research librarian drafting literature search queries.

Project:
- Title: {{.Title}}
- Clinical problem: {{.ClinicalProblem}}
- Target population: {{.TargetPopulation}}
- Intended outcomes: {{range .IntendedOutcomes}}{{.}}; {{end}}

Draft up to 3 search query strings suitable for bibliographic databases
(PubMed-style keyword queries, no field tags). Cover the clinical problem,
the population, and the outcomes from different angles.

Respond with a JSON object: {"queries": ["...", "..."]}. No text outside the JSON.`))

// relevancePromptTmpl asks the model to judge one candidate paper against
// the project. The response contract is {"score": float, "reasoning": "..."}.
var relevancePromptTmpl = template.Must(template.New("relevance").Parse(`You are screening literature for a research proposal.

Project:
- Clinical problem: {{.Project.ClinicalProblem}}
- Target population: {{.Project.TargetPopulation}}
- Intended outcomes: {{range .Project.IntendedOutcomes}}{{.}}; {{end}}

Candidate paper:
- Title: {{.Paper.Title}}
- Authors: {{range .Paper.Authors}}{{.}}; {{end}}
- Venue: {{.Paper.Venue}}
- Abstract: {{.Paper.Abstract}}

Rate how relevant this paper is to the project on a scale from 0.0 (unrelated)
to 1.0 (directly on topic).

Respond with a JSON object: {"score": 0.0, "reasoning": "one sentence"}. No text outside the JSON.`))

// Narrative extraction prompts: three independent contracts per article.
var (
	findingsPromptTmpl = template.Must(template.New("findings").Parse(`Extract the key findings from this paper's abstract as short statements.

Title: {{.Title}}
Abstract: {{.Abstract}}

Respond with a JSON object: {"key_findings": ["...", "..."]}. No text outside the JSON.`))

	methodologyPromptTmpl = template.Must(template.New("methodology").Parse(`Summarize the study design and methods of this paper in 2-3 sentences.

Title: {{.Title}}
Abstract: {{.Abstract}}

Respond with a JSON object: {"methodology_notes": "..."}. No text outside the JSON.`))

	limitationsPromptTmpl = template.Must(template.New("limitations").Parse(`List the stated or apparent limitations of this study.

Title: {{.Title}}
Abstract: {{.Abstract}}

Respond with a JSON object: {"limitations": ["...", "..."]}. No text outside the JSON.`))
)

// placeholderLen bounds the abstract excerpt used when extraction fails.
const placeholderLen = 200

// Collaborator wraps a Backend with the pipeline's three call/response
// contracts. It satisfies rank.Assessor.
type Collaborator struct {
	backend Backend
}

// NewCollaborator returns a Collaborator over the given backend.
func NewCollaborator(backend Backend) *Collaborator {
	return &Collaborator{backend: backend}
}

// QueryVariants asks the model for search query variants. Callers fall
// back to their base query when this errors or returns nothing.
func (c *Collaborator) QueryVariants(ctx context.Context, project types.ProjectContext) ([]string, error) {
	prompt, err := render(queryPromptTmpl, project)
	if err != nil {
		return nil, err
	}

	raw, err := c.backend.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing query response: %w", err)
	}

	var queries []string
	for _, q := range parsed.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
		if len(queries) == 3 {
			break
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries in response")
	}
	return queries, nil
}

// AssessRelevance judges one paper against the project. The score is
// validated here; an out-of-range or non-numeric score is an error so the
// ranker can apply its neutral default.
func (c *Collaborator) AssessRelevance(ctx context.Context, paper types.UnifiedPaper, project types.ProjectContext) (float64, error) {
	prompt, err := render(relevancePromptTmpl, struct {
		Project types.ProjectContext
		Paper   types.UnifiedPaper
	}{project, paper})
	if err != nil {
		return 0, err
	}

	raw, err := c.backend.Complete(ctx, prompt)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		Score     *float64 `json:"score"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return 0, fmt.Errorf("parsing relevance response: %w", err)
	}
	if parsed.Score == nil {
		return 0, fmt.Errorf("relevance response missing score")
	}
	if *parsed.Score < 0 || *parsed.Score > 1 {
		return 0, fmt.Errorf("relevance score %v out of range", *parsed.Score)
	}
	return *parsed.Score, nil
}

// ExtractNarrative runs the three extraction contracts for one paper.
// Each call degrades independently to a placeholder derived from the
// abstract; ExtractNarrative never returns an error.
func (c *Collaborator) ExtractNarrative(ctx context.Context, paper types.RankedPaper) (keyFindings []string, methodologyNotes string, limitations []string) {
	fallback := Placeholder(paper.Abstract)

	keyFindings = fallbackList(fallback)
	if raw, err := c.complete(ctx, findingsPromptTmpl, paper); err == nil {
		var parsed struct {
			KeyFindings []string `json:"key_findings"`
		}
		if json.Unmarshal([]byte(raw), &parsed) == nil && len(nonEmpty(parsed.KeyFindings)) > 0 {
			keyFindings = nonEmpty(parsed.KeyFindings)
		}
	}

	methodologyNotes = fallback
	if raw, err := c.complete(ctx, methodologyPromptTmpl, paper); err == nil {
		var parsed struct {
			MethodologyNotes string `json:"methodology_notes"`
		}
		if json.Unmarshal([]byte(raw), &parsed) == nil && strings.TrimSpace(parsed.MethodologyNotes) != "" {
			methodologyNotes = parsed.MethodologyNotes
		}
	}

	limitations = fallbackList(fallback)
	if raw, err := c.complete(ctx, limitationsPromptTmpl, paper); err == nil {
		var parsed struct {
			Limitations []string `json:"limitations"`
		}
		if json.Unmarshal([]byte(raw), &parsed) == nil && len(nonEmpty(parsed.Limitations)) > 0 {
			limitations = nonEmpty(parsed.Limitations)
		}
	}

	return keyFindings, methodologyNotes, limitations
}

func (c *Collaborator) complete(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	prompt, err := render(tmpl, data)
	if err != nil {
		return "", err
	}
	raw, err := c.backend.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return stripCodeFence(raw), nil
}

// Placeholder derives the fixed fallback text from a raw abstract.
func Placeholder(abstract string) string {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" {
		return "No abstract available for automated extraction."
	}
	if len(abstract) <= placeholderLen {
		return abstract
	}
	cut := abstract[:placeholderLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func fallbackList(placeholder string) []string {
	return []string{placeholder}
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
