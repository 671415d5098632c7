package tutorial

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codeprimer/codeprimer/pkg/batch"
	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/llm"
	"github.com/codeprimer/codeprimer/pkg/llm/llmtest"
	"github.com/codeprimer/codeprimer/pkg/source"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testGateway(mock *llmtest.Mock) *llm.Gateway {
	return llm.NewGateway([]llm.Client{mock}, llm.Options{RetryDelay: time.Millisecond})
}

func testOptions() Options {
	o := Options{Provider: "mock", Model: "m", ProjectName: "demo"}
	o.ValidateAndSetDefaults()
	return o
}

func oneBatch(files ...source.File) []batch.Batch {
	return []batch.Batch{{Files: files}}
}

const extractResponse = "```yaml\n" +
	`- name: Parser
  description: Reads input.
  file_indices:
    - 0 # parser.go
- name: Renderer
  description: Writes output.
  file_indices:
    - 1
` + "```"

func TestExtractSingleBatch(t *testing.T) {
	mock := &llmtest.Mock{Script: []string{extractResponse}}
	files := []source.File{
		{Path: "parser.go", Content: "package parser"},
		{Path: "render.go", Content: "package render"},
	}

	abstractions, err := Extract(context.Background(), testGateway(mock), testOptions(), oneBatch(files...), testLogger())
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(abstractions) != 2 {
		t.Fatalf("got %d abstractions, want 2", len(abstractions))
	}
	if abstractions[0].Name != "Parser" || abstractions[0].ID != 0 {
		t.Errorf("first abstraction = %+v", abstractions[0])
	}
	if len(abstractions[0].Evidence) != 1 || abstractions[0].Evidence[0] != "parser.go" {
		t.Errorf("evidence = %v, want [parser.go]", abstractions[0].Evidence)
	}
	if abstractions[1].Evidence[0] != "render.go" {
		t.Errorf("bare-int index not resolved: %v", abstractions[1].Evidence)
	}
}

func TestExtractCorrectiveRetryOnGarbage(t *testing.T) {
	responses := []string{"sorry, here is some prose instead", extractResponse}
	call := 0
	mock := &llmtest.Mock{Respond: func(model, prompt string) (string, error) {
		r := responses[call]
		call++
		return r, nil
	}}
	files := []source.File{
		{Path: "parser.go", Content: "x"},
		{Path: "render.go", Content: "y"},
	}

	abstractions, err := Extract(context.Background(), testGateway(mock), testOptions(), oneBatch(files...), testLogger())
	if err != nil {
		t.Fatalf("Extract error after corrective retry: %v", err)
	}
	if len(abstractions) != 2 {
		t.Errorf("got %d abstractions, want 2", len(abstractions))
	}
	if mock.Calls() != 2 {
		t.Errorf("gateway calls = %d, want 2 (original + corrective)", mock.Calls())
	}
	prompts := mock.Prompts()
	if !strings.Contains(prompts[1], "could not be parsed") {
		t.Error("second prompt must carry the corrective preamble")
	}
}

func TestExtractParseErrorAfterRetry(t *testing.T) {
	mock := &llmtest.Mock{Respond: func(model, prompt string) (string, error) {
		return "still not yaml", nil
	}}
	files := []source.File{{Path: "a.go", Content: "x"}}

	_, err := Extract(context.Background(), testGateway(mock), testOptions(), oneBatch(files...), testLogger())
	if !errors.Is(err, errors.ErrCodeExtractionParse) {
		t.Fatalf("expected EXTRACTION_PARSE, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("gateway calls = %d, want exactly 2", mock.Calls())
	}
}

func TestExtractMergesAcrossBatches(t *testing.T) {
	batch1 := "```yaml\n- name: \"Query  Engine\"\n  description: First take.\n  file_indices:\n    - 0\n```"
	batch2 := "```yaml\n- name: query engine\n  description: Second take.\n  file_indices:\n    - 0\n- name: Cache\n  description: Stores things.\n  file_indices:\n    - 0\n```"

	mock := &llmtest.Mock{Respond: func(model, prompt string) (string, error) {
		if strings.Contains(prompt, "first.go") {
			return batch1, nil
		}
		return batch2, nil
	}}

	batches := []batch.Batch{
		{Files: []source.File{{Path: "first.go", Content: "a"}}},
		{Files: []source.File{{Path: "second.go", Content: "b"}}},
	}
	opts := testOptions()
	opts.MaxWorkers = 1

	abstractions, err := Extract(context.Background(), testGateway(mock), opts, batches, testLogger())
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(abstractions) != 2 {
		t.Fatalf("got %d abstractions, want 2 (Query Engine merged)", len(abstractions))
	}

	qe := abstractions[0]
	if qe.Name != "Query  Engine" {
		t.Errorf("merged abstraction keeps first-seen name, got %q", qe.Name)
	}
	if !strings.Contains(qe.Description, "First take.") || !strings.Contains(qe.Description, "Second take.") {
		t.Errorf("merged description = %q", qe.Description)
	}
	want := []string{"first.go", "second.go"}
	if len(qe.Evidence) != 2 || qe.Evidence[0] != want[0] || qe.Evidence[1] != want[1] {
		t.Errorf("merged evidence = %v, want %v", qe.Evidence, want)
	}
	if abstractions[1].Name != "Cache" || abstractions[1].ID != 1 {
		t.Errorf("second abstraction = %+v", abstractions[1])
	}
}

func TestExtractCapDropsLowestEvidence(t *testing.T) {
	response := "```yaml\n" +
		`- name: Big
  description: d
  file_indices: [0, 1, 2]
- name: Small
  description: d
  file_indices: [0]
- name: Medium
  description: d
  file_indices: [0, 1]
` + "```"
	mock := &llmtest.Mock{Script: []string{response}}
	files := []source.File{
		{Path: "a.go", Content: "a"},
		{Path: "b.go", Content: "b"},
		{Path: "c.go", Content: "c"},
	}
	opts := testOptions()
	opts.MaxAbstractions = 2

	abstractions, err := Extract(context.Background(), testGateway(mock), opts, oneBatch(files...), testLogger())
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(abstractions) != 2 {
		t.Fatalf("got %d abstractions, want 2", len(abstractions))
	}
	if abstractions[0].Name != "Big" || abstractions[1].Name != "Medium" {
		t.Errorf("kept %q and %q, want Big and Medium", abstractions[0].Name, abstractions[1].Name)
	}
	// IDs renumbered densely after the cap.
	if abstractions[0].ID != 0 || abstractions[1].ID != 1 {
		t.Errorf("IDs = %d, %d, want 0, 1", abstractions[0].ID, abstractions[1].ID)
	}
}

func TestExtractDropsOutOfRangeIndices(t *testing.T) {
	response := "```yaml\n- name: Thing\n  description: d\n  file_indices: [0, 99]\n```"
	mock := &llmtest.Mock{Script: []string{response}}
	files := []source.File{{Path: "only.go", Content: "x"}}

	abstractions, err := Extract(context.Background(), testGateway(mock), testOptions(), oneBatch(files...), testLogger())
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(abstractions[0].Evidence) != 1 || abstractions[0].Evidence[0] != "only.go" {
		t.Errorf("evidence = %v, want [only.go]", abstractions[0].Evidence)
	}
}
