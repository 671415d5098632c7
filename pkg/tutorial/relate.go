package tutorial

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/codeprimer/codeprimer/pkg/llm"
	"github.com/codeprimer/codeprimer/pkg/source"
)

// rawRelationships is the YAML shape of the mapping response.
type rawRelationships struct {
	Summary       string `yaml:"summary"`
	Relationships []struct {
		From  any    `yaml:"from_abstraction"`
		To    any    `yaml:"to_abstraction"`
		Label string `yaml:"label"`
	} `yaml:"relationships"`
}

// Relate maps relationships between abstractions with a single model
// call. Edges citing unknown abstraction IDs are discarded and logged
// rather than failing the run; exact duplicate edges are dropped. A
// response with zero edges is valid.
func Relate(ctx context.Context, gw *llm.Gateway, opts Options, abstractions []Abstraction, files []source.File, logger *log.Logger) (summary string, edges []Edge, err error) {
	prompt := relatePrompt(opts, abstractions, files)

	err = callParsed(ctx, gw, opts.Provider, opts.Model, prompt, func(response string) error {
		body, err := fencedYAML(response)
		if err != nil {
			return err
		}
		var raw rawRelationships
		if err := decodeYAML(body, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw.Summary) == "" {
			return fmt.Errorf("missing project summary")
		}

		seen := make(map[Edge]bool)
		var parsed []Edge
		for _, rel := range raw.Relationships {
			from, err := parseIndexEntry(rel.From)
			if err != nil {
				return err
			}
			to, err := parseIndexEntry(rel.To)
			if err != nil {
				return err
			}
			e := Edge{From: from, To: to, Label: strings.TrimSpace(rel.Label)}
			if from < 0 || from >= len(abstractions) || to < 0 || to >= len(abstractions) {
				logger.Warn("discarding edge with unknown abstraction ID", "from", from, "to", to, "label", e.Label)
				continue
			}
			if seen[e] {
				continue
			}
			seen[e] = true
			parsed = append(parsed, e)
		}

		summary = strings.TrimSpace(raw.Summary)
		edges = parsed
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return summary, edges, nil
}

// relatePrompt enumerates the abstractions with their evidence excerpts
// and asks for a project summary plus directed labeled edges.
func relatePrompt(opts Options, abstractions []Abstraction, files []source.File) string {
	contentByPath := make(map[string]string, len(files))
	for _, f := range files {
		contentByPath[f.Path] = f.Content
	}

	var listing strings.Builder
	var context strings.Builder
	relevant := make(map[string]bool)

	context.WriteString("Identified Abstractions:\n")
	for _, a := range abstractions {
		fmt.Fprintf(&listing, "%d # %s\n", a.ID, a.Name)
		fmt.Fprintf(&context, "- Index %d: %s (Evidence files: %s)\n  Description: %s\n",
			a.ID, a.Name, strings.Join(a.Evidence, ", "), a.Description)
		for _, path := range a.Evidence {
			relevant[path] = true
		}
	}

	context.WriteString("\nRelevant File Snippets:\n")
	for _, f := range files {
		if !relevant[f.Path] {
			continue
		}
		fmt.Fprintf(&context, "--- File: %s ---\n%s\n\n", f.Path, excerpt(f.Content, 3000))
	}

	return fmt.Sprintf(`Based on the following abstractions and relevant code snippets from the project %q:

List of Abstraction Indices and Names:
%s
Context (Abstractions, Descriptions, Code):
%s
Please provide:
1. A high-level `+"`summary`"+` of the project's main purpose and functionality in a few beginner-friendly sentences. Use markdown formatting with **bold** and *italic* text to highlight important concepts.
2. A list (`+"`relationships`"+`) describing the key interactions between these abstractions. For each relationship, specify:
    - `+"`from_abstraction`"+`: Index of the source abstraction (e.g., `+"`0 # AbstractionName1`"+`)
    - `+"`to_abstraction`"+`: Index of the target abstraction (e.g., `+"`1 # AbstractionName2`"+`)
    - `+"`label`"+`: A brief label for the interaction **in just a few words** (e.g., "Manages", "Inherits", "Uses").

IMPORTANT: Make sure EVERY abstraction is involved in at least ONE relationship (either as source or target).

Format the output as YAML:

`+"```yaml"+`
summary: |
  A brief, simple explanation of the project.
relationships:
  - from_abstraction: 0 # AbstractionName1
    to_abstraction: 1 # AbstractionName2
    label: "Manages"
`+"```", opts.ProjectName, listing.String(), context.String())
}
