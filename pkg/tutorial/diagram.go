package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// maxEdgeLabelChars caps mermaid edge labels so the diagram stays
// readable; longer labels are cut with an ellipsis.
const maxEdgeLabelChars = 30

// Mermaid renders the relationship graph as a mermaid flowchart. Output
// is deterministic: one node per abstraction in ID order, one labeled
// arrow per edge in input order. An empty graph renders a placeholder
// node so the document never embeds an invalid diagram.
func Mermaid(abstractions []Abstraction, edges []Edge) string {
	var buf strings.Builder
	buf.WriteString("flowchart TD")

	if len(abstractions) == 0 {
		buf.WriteString("\n    empty[\"No abstractions identified\"]")
		return buf.String()
	}

	for _, a := range abstractions {
		fmt.Fprintf(&buf, "\n    A%d[%q]", a.ID, sanitizeLabel(a.Name, 0))
	}
	for _, e := range edges {
		fmt.Fprintf(&buf, "\n    A%d -- %q --> A%d", e.From, sanitizeLabel(e.Label, maxEdgeLabelChars), e.To)
	}
	return buf.String()
}

// sanitizeLabel strips characters that break mermaid syntax and caps
// length when maxChars > 0.
func sanitizeLabel(label string, maxChars int) string {
	label = strings.ReplaceAll(label, "\"", "")
	label = strings.Join(strings.Fields(label), " ")
	if maxChars > 0 && len(label) > maxChars {
		label = label[:maxChars-3] + "..."
	}
	return label
}

// ToDOT converts the relationship graph to Graphviz DOT for standalone
// rendering with [RenderSVG].
func ToDOT(abstractions []Abstraction, edges []Edge) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, a := range abstractions {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(a.ID), a.Name)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(e.From), nodeID(e.To), sanitizeLabel(e.Label, maxEdgeLabelChars))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id int) string {
	return "A" + strconv.Itoa(id)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element with an origin-based
// viewBox and explicit dimensions so embedding contexts size it
// consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
