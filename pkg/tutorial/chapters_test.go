package tutorial

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/codeprimer/codeprimer/pkg/httputil"
	"github.com/codeprimer/codeprimer/pkg/llm/llmtest"
	"github.com/codeprimer/codeprimer/pkg/source"
)

func TestWriteChaptersSequentialSummary(t *testing.T) {
	mock := &llmtest.Mock{Respond: func(model, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, `"Parser"`):
			return "# Chapter 1: Parser\n\nThe parser reads raw input into a tree.", nil
		default:
			return "# Chapter 2: Renderer\n\nThe renderer walks the tree and prints it.", nil
		}
	}}
	abstractions := []Abstraction{
		{ID: 0, Name: "Parser", Description: "reads", Evidence: []string{"parser.go"}},
		{ID: 1, Name: "Renderer", Description: "writes", Evidence: []string{"render.go"}},
	}
	files := []source.File{
		{Path: "parser.go", Content: "package parser"},
		{Path: "render.go", Content: "package render"},
	}

	chapters, warnings, err := WriteChapters(context.Background(), testGateway(mock), testOptions(),
		[]int{0, 1}, abstractions, []Edge{{From: 0, To: 1, Label: "feeds"}}, files, testLogger())
	if err != nil {
		t.Fatalf("WriteChapters error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}

	prompts := mock.Prompts()
	if !strings.Contains(prompts[0], "This is the first chapter.") {
		t.Error("first prompt must state there are no prior chapters")
	}
	if !strings.Contains(prompts[1], "Chapter 1 (Parser):") ||
		!strings.Contains(prompts[1], "parser reads raw input") {
		t.Error("second prompt must carry the running summary of chapter 1")
	}
	if !strings.Contains(prompts[1], "Parser feeds Renderer") {
		t.Error("second prompt must list the touching edge")
	}
}

func TestWriteChaptersPlaceholderOnFailure(t *testing.T) {
	mock := &llmtest.Mock{Respond: func(model, prompt string) (string, error) {
		if strings.Contains(prompt, `"Broken"`) {
			return "", httputil.Retryable(fmt.Errorf("provider melted"))
		}
		return "# Chapter 2: Fine\n\nAll good here.", nil
	}}
	abstractions := []Abstraction{
		{ID: 0, Name: "Broken", Description: "d"},
		{ID: 1, Name: "Fine", Description: "d"},
	}

	chapters, warnings, err := WriteChapters(context.Background(), testGateway(mock), testOptions(),
		[]int{0, 1}, abstractions, nil, nil, testLogger())
	if err != nil {
		t.Fatalf("WriteChapters must degrade, not fail: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if !chapters[0].Placeholder {
		t.Error("failed chapter must be a placeholder")
	}
	if !strings.HasPrefix(chapters[0].Body, "# Chapter 1: Broken") {
		t.Errorf("placeholder body = %q", chapters[0].Body)
	}
	if chapters[1].Placeholder {
		t.Error("healthy chapter marked placeholder")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "chapter 1 (Broken)") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestWriteChaptersCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &llmtest.Mock{Script: []string{"never used"}}
	abstractions := []Abstraction{{ID: 0, Name: "X", Description: "d"}}

	_, _, err := WriteChapters(ctx, testGateway(mock), testOptions(), []int{0}, abstractions, nil, nil, testLogger())
	if err == nil {
		t.Fatal("cancelled context must abort, not degrade")
	}
	if mock.Calls() != 0 {
		t.Errorf("gateway called %d times after cancellation", mock.Calls())
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "already canonical",
			body: "# Chapter 3: Widgets\n\ntext",
			want: "# Chapter 3: Widgets\n\ntext",
		},
		{
			name: "model invented its own heading",
			body: "# All About Widgets\ntext",
			want: "# Chapter 3: Widgets\ntext",
		},
		{
			name: "no heading at all",
			body: "text only",
			want: "# Chapter 3: Widgets\n\ntext only",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeHeading(tt.body, 3, "Widgets"); got != tt.want {
				t.Errorf("normalizeHeading = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstParagraph(t *testing.T) {
	body := "# Chapter 1: X\n\n```go\ncode := here\n```\n\nThe real first\nparagraph spans lines.\n\nSecond paragraph."
	got := firstParagraph(body)
	want := "The real first paragraph spans lines."
	if got != want {
		t.Errorf("firstParagraph = %q, want %q", got, want)
	}
}
