package tutorial

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/codeprimer/codeprimer/pkg/llm"
	"github.com/codeprimer/codeprimer/pkg/source"
)

// WriteChapters generates one chapter per plan entry, strictly in order.
// Each call's prompt carries a running summary of the chapters written
// so far, so the calls cannot be parallelized without losing narrative
// consistency.
//
// A chapter whose generation call fails after the gateway's retries is
// emitted with a placeholder body and a warning instead of aborting;
// by this point the run has already paid for extraction and mapping.
// Cancellation still aborts immediately.
func WriteChapters(ctx context.Context, gw *llm.Gateway, opts Options, plan []int, abstractions []Abstraction, edges []Edge, files []source.File, logger *log.Logger) ([]Chapter, []string, error) {
	byID := make(map[int]Abstraction, len(abstractions))
	for _, a := range abstractions {
		byID[a.ID] = a
	}

	var structure strings.Builder
	for i, id := range plan {
		fmt.Fprintf(&structure, "%d. %s\n", i+1, byID[id].Name)
	}

	contentByPath := make(map[string]string, len(files))
	for _, f := range files {
		contentByPath[f.Path] = f.Content
	}

	var chapters []Chapter
	var warnings []string
	runningSummary := ""

	for i, id := range plan {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		a := byID[id]
		num := i + 1
		logger.Info("writing chapter", "number", num, "of", len(plan), "abstraction", a.Name)

		prompt := chapterPrompt(opts, a, num, structure.String(), runningSummary, edges, byID, contentByPath)
		body, err := gw.Call(ctx, opts.Provider, opts.Model, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			warning := fmt.Sprintf("chapter %d (%s): generation failed: %v", num, a.Name, err)
			logger.Warn("emitting placeholder chapter", "number", num, "error", err)
			warnings = append(warnings, warning)
			chapters = append(chapters, placeholderChapter(num, a))
			continue
		}

		body = normalizeHeading(body, num, a.Name)
		chapters = append(chapters, Chapter{
			Number:        num,
			AbstractionID: id,
			Title:         a.Name,
			Body:          body,
		})
		runningSummary = appendSummary(runningSummary, num, a.Name, body)
	}
	return chapters, warnings, nil
}

// chapterPrompt builds the generation prompt for one abstraction.
func chapterPrompt(opts Options, a Abstraction, num int, structure, runningSummary string, edges []Edge, byID map[int]Abstraction, contentByPath map[string]string) string {
	var snippets strings.Builder
	for _, path := range a.Evidence {
		content, ok := contentByPath[path]
		if !ok {
			continue
		}
		fmt.Fprintf(&snippets, "--- File: %s ---\n%s\n\n", path, excerpt(content, DefaultChapterExcerptChars))
	}
	snippetStr := snippets.String()
	if snippetStr == "" {
		snippetStr = "No specific code snippets provided.\n"
	}

	var related strings.Builder
	for _, e := range edges {
		switch {
		case e.From == a.ID:
			fmt.Fprintf(&related, "- %s %s %s\n", a.Name, e.Label, byID[e.To].Name)
		case e.To == a.ID:
			fmt.Fprintf(&related, "- %s %s %s\n", byID[e.From].Name, e.Label, a.Name)
		}
	}
	relatedStr := related.String()
	if relatedStr == "" {
		relatedStr = "No direct relationships recorded.\n"
	}

	if runningSummary == "" {
		runningSummary = "This is the first chapter."
	}

	return fmt.Sprintf(`Write a very beginner-friendly tutorial chapter (in Markdown format) for the project %q about the concept: %q. This is Chapter %d.

Concept Details:
- Name: %s
- Description:
%s

Complete Tutorial Structure:
%s
Related Concepts (for "see also" cross-references):
%s
Summary of previous chapters:
%s

Relevant Code Snippets:
%s
Instructions:
- Start with heading: `+"`# Chapter %d: %s`"+`
- Begin with high-level motivation explaining what problem this solves
- Break complex abstractions into key concepts
- Explain with examples, inputs/outputs
- Keep code blocks under 10 lines
- Use analogies and examples
- Reference earlier chapters' concepts instead of re-explaining them
- End with summary and transition to next chapter

Now, provide the Markdown content:
`, opts.ProjectName, a.Name, num, a.Name, a.Description, structure, relatedStr, runningSummary, snippetStr, num, a.Name)
}

// normalizeHeading forces the chapter to start with the canonical
// heading when the model chose its own variant.
func normalizeHeading(body string, num int, name string) string {
	want := fmt.Sprintf("# Chapter %d: %s", num, name)
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, fmt.Sprintf("# Chapter %d", num)) {
		return body
	}
	lines := strings.SplitN(body, "\n", 2)
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		if len(lines) == 2 {
			return want + "\n" + lines[1]
		}
		return want
	}
	return want + "\n\n" + body
}

// appendSummary extends the running summary with a condensed account of
// the chapter just written: its title and first real paragraph, capped.
// Full chapter text would grow later prompts without bound.
func appendSummary(running string, num int, name, body string) string {
	condensed := firstParagraph(body)
	if len(condensed) > DefaultSummaryChars {
		condensed = condensed[:DefaultSummaryChars] + "..."
	}
	entry := fmt.Sprintf("Chapter %d (%s): %s", num, name, condensed)
	if running == "" {
		return entry
	}
	return running + "\n\n" + entry
}

// firstParagraph returns the first non-heading, non-fence paragraph.
func firstParagraph(body string) string {
	inFence := false
	var para []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, trimmed)
	}
	return strings.Join(para, " ")
}

// placeholderChapter stands in for a chapter whose generation failed.
func placeholderChapter(num int, a Abstraction) Chapter {
	body := fmt.Sprintf("# Chapter %d: %s\n\n_Content generation for this chapter failed; re-run with the cache enabled to fill it in._\n\n%s",
		num, a.Name, a.Description)
	return Chapter{
		Number:        num,
		AbstractionID: a.ID,
		Title:         a.Name,
		Body:          body,
		Placeholder:   true,
	}
}
