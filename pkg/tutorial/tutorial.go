// Package tutorial implements the tutorial-generation pipeline.
//
// The pipeline turns a source corpus into a beginner-oriented markdown
// tutorial in seven stages:
//
//  1. Pack: group ingested files into context-sized batches
//  2. Extract: one model call per batch identifies core abstractions
//  3. Relate: one model call maps relationships between abstractions
//  4. Sequence: order chapters foundational-first (deterministic)
//  5. Write: one sequential model call per chapter
//  6. Diagram: render the relationship graph (deterministic)
//  7. Assemble: stitch summary, diagram, TOC, and chapters together
//
// Every model call routes through an llm.Gateway, so caching and retry
// behavior is uniform across stages. Stages 2 is the only one that runs
// calls concurrently; chapter writing is strictly sequential because each
// chapter's prompt carries a running summary of the chapters before it.
//
// Create a Runner and execute the pipeline:
//
//	runner := tutorial.NewRunner(gateway, logger)
//	result, err := runner.Execute(ctx, ref, tutorial.Options{
//	    Provider: "gemini",
//	    Model:    "gemini-2.5-flash",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(path, []byte(result.Document.Markdown), 0644)
package tutorial

import (
	"strconv"
	"time"

	"github.com/codeprimer/codeprimer/pkg/batch"
	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/source"
)

// Defaults for pipeline options.
const (
	// DefaultMaxAbstractions caps how many concepts become chapters.
	// Tutorials past ten chapters stop being approachable.
	DefaultMaxAbstractions = 10

	// DefaultMaxWorkers bounds concurrent extraction calls.
	DefaultMaxWorkers = 4

	// DefaultExtractExcerptChars is the per-file excerpt size inside
	// extraction prompts.
	DefaultExtractExcerptChars = 4000

	// DefaultChapterExcerptChars is the per-file excerpt size inside
	// chapter prompts. Chapters get more room since they cover one
	// concept's files rather than a whole batch.
	DefaultChapterExcerptChars = 6000

	// DefaultSummaryChars caps each chapter's contribution to the
	// running summary threaded through chapter generation.
	DefaultSummaryChars = 600
)

// Abstraction is one LLM-identified concept in the analyzed codebase.
type Abstraction struct {
	// ID is a stable integer assigned after cross-batch merging, in
	// order of first appearance.
	ID int

	Name        string
	Description string

	// Evidence lists the source file paths that back this concept.
	// Sorted, no duplicates.
	Evidence []string
}

// Edge is a directed, labeled relationship between two abstractions.
// From is the foundational side: an edge A -> B reads "A is a
// prerequisite concept for B".
type Edge struct {
	From  int
	To    int
	Label string
}

// Chapter is one generated tutorial section, covering one abstraction.
type Chapter struct {
	Number        int
	AbstractionID int
	Title         string
	Body          string

	// Placeholder marks a chapter whose generation failed after
	// retries; Body holds a stub instead of real content.
	Placeholder bool
}

// Document is the assembled tutorial.
type Document struct {
	ProjectName  string
	Summary      string
	Abstractions []Abstraction
	Edges        []Edge
	Diagram      string
	Chapters     []Chapter

	// Markdown is the full rendered document.
	Markdown string
}

// Options configures a pipeline run.
type Options struct {
	// Provider and Model select the gateway backend for every call.
	Provider string
	Model    string

	// ProjectName appears in prompts and the document title. Empty
	// derives it from the source reference.
	ProjectName string

	// Language, when set to anything other than English, adds a final
	// whole-document translation pass.
	Language string

	// MaxAbstractions caps the merged abstraction set.
	MaxAbstractions int

	// TokenBudget is the per-batch packing ceiling.
	TokenBudget int

	// MaxWorkers bounds concurrent extraction calls.
	MaxWorkers int

	// Source controls ingestion (patterns, size ceiling, token).
	Source source.Options
}

// ValidateAndSetDefaults checks options and fills zero values.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Provider == "" {
		return errors.New(errors.ErrCodeInvalidInput, "provider is required")
	}
	if o.Model == "" {
		return errors.New(errors.ErrCodeInvalidInput, "model is required")
	}
	if o.ProjectName != "" {
		if err := errors.ValidateProjectName(o.ProjectName); err != nil {
			return err
		}
	}
	if o.MaxAbstractions <= 0 {
		o.MaxAbstractions = DefaultMaxAbstractions
	}
	if o.TokenBudget <= 0 {
		o.TokenBudget = batch.DefaultTokenBudget
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	return nil
}

// Stats records per-stage measurements for one run.
type Stats struct {
	Files        int
	Batches      int
	Abstractions int
	Edges        int
	Chapters     int

	IngestTime   time.Duration
	ExtractTime  time.Duration
	RelateTime   time.Duration
	WriteTime    time.Duration
	AssembleTime time.Duration
}

// Result is the output of a complete pipeline run.
type Result struct {
	// RunID uniquely identifies this execution in logs.
	RunID string

	Document *Document
	Stats    Stats

	// Warnings lists non-fatal degradations (placeholder chapters,
	// discarded edges). A non-empty list means the tutorial is partial.
	Warnings []string
}

// excerpt truncates content to at most maxChars by keeping the first and
// last halves, with a marker in between. Small content passes through.
func excerpt(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	half := maxChars / 2
	return content[:half] +
		"\n... [truncated: showing first and last " + strconv.Itoa(half) + " of " + strconv.Itoa(len(content)) + " chars] ...\n" +
		content[len(content)-half:]
}
