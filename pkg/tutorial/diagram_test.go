package tutorial

import (
	"strings"
	"testing"
)

func TestMermaid(t *testing.T) {
	abstractions := []Abstraction{
		{ID: 0, Name: "Parser"},
		{ID: 1, Name: `Renderer "v2"`},
	}
	edges := []Edge{
		{From: 0, To: 1, Label: "feeds parsed trees"},
	}

	got := Mermaid(abstractions, edges)
	want := "flowchart TD\n" +
		"    A0[\"Parser\"]\n" +
		"    A1[\"Renderer v2\"]\n" +
		"    A0 -- \"feeds parsed trees\" --> A1"
	if got != want {
		t.Errorf("Mermaid =\n%s\nwant\n%s", got, want)
	}
}

func TestMermaidCapsEdgeLabels(t *testing.T) {
	abstractions := []Abstraction{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}}
	edges := []Edge{{From: 0, To: 1, Label: strings.Repeat("long label ", 10)}}

	got := Mermaid(abstractions, edges)
	for _, line := range strings.Split(got, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		label := line[strings.Index(line, `"`)+1 : strings.LastIndex(line, `"`)]
		if len(label) > maxEdgeLabelChars {
			t.Errorf("edge label %q exceeds %d chars", label, maxEdgeLabelChars)
		}
		if !strings.HasSuffix(label, "...") {
			t.Errorf("capped label %q missing ellipsis", label)
		}
	}
}

func TestMermaidEmptyGraph(t *testing.T) {
	got := Mermaid(nil, nil)
	if !strings.HasPrefix(got, "flowchart TD") {
		t.Errorf("empty diagram = %q", got)
	}
	if !strings.Contains(got, "No abstractions") {
		t.Error("empty diagram must render a placeholder node")
	}
}

func TestMermaidDeterministic(t *testing.T) {
	abstractions := []Abstraction{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}, {ID: 2, Name: "C"}}
	edges := []Edge{{From: 2, To: 0, Label: "x"}, {From: 0, To: 1, Label: "y"}}
	if Mermaid(abstractions, edges) != Mermaid(abstractions, edges) {
		t.Error("two renders of the same graph differ")
	}
}

func TestToDOT(t *testing.T) {
	abstractions := []Abstraction{{ID: 0, Name: "Parser"}, {ID: 1, Name: "Renderer"}}
	edges := []Edge{{From: 0, To: 1, Label: "feeds"}}

	dot := ToDOT(abstractions, edges)
	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("DOT header missing: %q", dot)
	}
	for _, want := range []string{`"A0" [label="Parser"];`, `"A1" [label="Renderer"];`, `"A0" -> "A1" [label="feeds"];`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q in:\n%s", want, dot)
		}
	}
}
