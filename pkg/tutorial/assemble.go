package tutorial

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/codeprimer/codeprimer/pkg/llm"
)

// Assemble stitches summary, diagram, and chapters into the final
// markdown document. When opts.Language names a non-English target, one
// additional gateway call translates the whole document's prose in a
// single pass, keeping cross-references intact (per-chapter translation
// would drift terminology).
func Assemble(ctx context.Context, gw *llm.Gateway, opts Options, summary, diagram, sourceLabel string, chapters []Chapter) (string, error) {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# Tutorial: %s\n\n", opts.ProjectName)
	buf.WriteString(summary)
	buf.WriteString("\n\n")
	if sourceLabel != "" {
		fmt.Fprintf(&buf, "**Source:** %s\n\n", sourceLabel)
	}
	buf.WriteString("```mermaid\n")
	buf.WriteString(diagram)
	buf.WriteString("\n```\n\n")

	buf.WriteString("## Table of Contents\n\n")
	for _, ch := range chapters {
		fmt.Fprintf(&buf, "%d. [%s](#%s)\n", ch.Number, ch.Title, headingAnchor(ch.Number, ch.Title))
	}
	buf.WriteString("\n---\n\n")

	for _, ch := range chapters {
		buf.WriteString(strings.TrimSpace(ch.Body))
		buf.WriteString("\n\n---\n\n")
	}

	doc := buf.String()

	if needsTranslation(opts.Language) {
		translated, err := translate(ctx, gw, opts, doc)
		if err != nil {
			return "", err
		}
		doc = translated
	}
	return doc, nil
}

// headingAnchor derives the GitHub-style anchor for a chapter heading
// "Chapter N: Title": lowercase, spaces become hyphens, everything else
// non-alphanumeric drops out.
func headingAnchor(num int, title string) string {
	raw := fmt.Sprintf("chapter-%d-%s", num, strings.ToLower(title))
	var sb strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

// needsTranslation reports whether language names a non-English target.
func needsTranslation(language string) bool {
	lang := strings.ToLower(strings.TrimSpace(language))
	return lang != "" && lang != "english" && lang != "en"
}

// translate runs the whole-document translation pass.
func translate(ctx context.Context, gw *llm.Gateway, opts Options, doc string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following markdown tutorial into %s.

Rules:
- Translate ALL prose: headings, paragraphs, list items, table-of-contents entries.
- Do NOT translate or modify anything inside fenced code blocks (including the mermaid block).
- Do NOT translate identifiers, file paths, or URLs.
- Keep the markdown structure (headings levels, links, anchors) exactly as it is.
- Output only the translated document, with no commentary.

Document:

%s`, opts.Language, doc)

	return gw.Call(ctx, opts.Provider, opts.Model, prompt)
}
