package tutorial

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/codeprimer/codeprimer/pkg/batch"
	"github.com/codeprimer/codeprimer/pkg/llm"
)

// candidate is one abstraction proposed by a single batch's extraction
// call, before cross-batch merging.
type candidate struct {
	Name        string
	Description string
	Evidence    []string
}

// rawAbstraction is the YAML shape models return for one abstraction.
// file_indices entries arrive as bare ints or "3 # path" strings.
type rawAbstraction struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	FileIndices []any  `yaml:"file_indices"`
}

// Extract identifies core abstractions across all batches. Per-batch
// calls run concurrently up to maxWorkers; results merge in batch order
// so output is deterministic for fixed responses.
func Extract(ctx context.Context, gw *llm.Gateway, opts Options, batches []batch.Batch, logger *log.Logger) ([]Abstraction, error) {
	results := make([][]candidate, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for i, b := range batches {
		g.Go(func() error {
			cands, err := extractBatch(gctx, gw, opts, b, logger)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeCandidates(results)
	merged = capAbstractions(merged, opts.MaxAbstractions, logger)
	return merged, nil
}

// extractBatch runs one extraction call and parses its candidates.
func extractBatch(ctx context.Context, gw *llm.Gateway, opts Options, b batch.Batch, logger *log.Logger) ([]candidate, error) {
	prompt := extractPrompt(opts, b)

	var cands []candidate
	err := callParsed(ctx, gw, opts.Provider, opts.Model, prompt, func(response string) error {
		body, err := fencedYAML(response)
		if err != nil {
			return err
		}
		var raw []rawAbstraction
		if err := decodeYAML(body, &raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			return fmt.Errorf("no abstractions in response")
		}

		parsed := make([]candidate, 0, len(raw))
		for _, item := range raw {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("abstraction with empty name")
			}
			evidence := make(map[string]struct{})
			for _, entry := range item.FileIndices {
				idx, err := parseIndexEntry(entry)
				if err != nil {
					return err
				}
				if idx < 0 || idx >= len(b.Files) {
					logger.Warn("discarding out-of-range file index", "abstraction", item.Name, "index", idx)
					continue
				}
				evidence[b.Files[idx].Path] = struct{}{}
			}
			parsed = append(parsed, candidate{
				Name:        strings.TrimSpace(item.Name),
				Description: strings.TrimSpace(item.Description),
				Evidence:    sortedKeys(evidence),
			})
		}
		cands = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cands, nil
}

// extractPrompt embeds the batch's files (excerpted) and a file-index
// listing the model cites evidence against.
func extractPrompt(opts Options, b batch.Batch) string {
	var context strings.Builder
	var listing strings.Builder
	for i, f := range b.Files {
		fmt.Fprintf(&context, "--- File Index %d: %s ---\n%s\n\n", i, f.Path, excerpt(f.Content, DefaultExtractExcerptChars))
		fmt.Fprintf(&listing, "- %d # %s\n", i, f.Path)
	}

	return fmt.Sprintf(`For the project %q:

Codebase Context:
%s
Analyze the codebase context.
Identify at most %d of the core most important abstractions to help those new to the codebase.

For each abstraction, provide:
1. A concise `+"`name`"+`.
2. A beginner-friendly `+"`description`"+` explaining what it is with a simple analogy, in around 100 words.
3. A list of relevant `+"`file_indices`"+` (integers) using the format `+"`idx # path`"+`.

List of file indices and paths present in the context:
%s
Format the output as a YAML list of dictionaries:

`+"```yaml"+`
- name: |
    Query Processing
  description: |
    Explains what the abstraction does.
    It's like a central dispatcher routing requests.
  file_indices:
    - 0 # path/to/file1.py
    - 3 # path/to/related.py
`+"```", opts.ProjectName, context.String(), opts.MaxAbstractions, listing.String())
}

// normalizeName is the merge key for cross-batch deduplication: names
// matching case-insensitively after trimming and whitespace collapse
// refer to the same abstraction.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// mergeCandidates folds per-batch candidates into one abstraction set.
// Descriptions of merged duplicates are concatenated; evidence sets are
// unioned. IDs follow first appearance across batches in order.
func mergeCandidates(results [][]candidate) []Abstraction {
	var merged []Abstraction
	index := make(map[string]int)

	for _, cands := range results {
		for _, c := range cands {
			key := normalizeName(c.Name)
			if pos, seen := index[key]; seen {
				a := &merged[pos]
				if c.Description != "" && !strings.Contains(a.Description, c.Description) {
					a.Description += "\n\n" + c.Description
				}
				a.Evidence = unionSorted(a.Evidence, c.Evidence)
				continue
			}
			index[key] = len(merged)
			merged = append(merged, Abstraction{
				ID:          len(merged),
				Name:        c.Name,
				Description: c.Description,
				Evidence:    c.Evidence,
			})
		}
	}
	return merged
}

// capAbstractions drops the lowest-evidence entries when the merged set
// exceeds max. Surviving entries keep first-appearance order and are
// renumbered densely.
func capAbstractions(abstractions []Abstraction, max int, logger *log.Logger) []Abstraction {
	if len(abstractions) <= max {
		return abstractions
	}

	ranked := make([]Abstraction, len(abstractions))
	copy(ranked, abstractions)
	sort.SliceStable(ranked, func(i, j int) bool {
		if len(ranked[i].Evidence) != len(ranked[j].Evidence) {
			return len(ranked[i].Evidence) > len(ranked[j].Evidence)
		}
		return ranked[i].ID < ranked[j].ID
	})

	keep := make(map[int]bool, max)
	for _, a := range ranked[:max] {
		keep[a.ID] = true
	}
	for _, a := range ranked[max:] {
		logger.Warn("dropping low-evidence abstraction over cap", "name", a.Name, "evidence", len(a.Evidence))
	}

	out := make([]Abstraction, 0, max)
	for _, a := range abstractions {
		if keep[a.ID] {
			a.ID = len(out)
			out = append(out, a)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}
