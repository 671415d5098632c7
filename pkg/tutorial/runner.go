package tutorial

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/codeprimer/codeprimer/pkg/batch"
	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/llm"
	"github.com/codeprimer/codeprimer/pkg/observability"
	"github.com/codeprimer/codeprimer/pkg/source"
)

// Runner executes the full pipeline. It is stateless apart from the
// gateway and logger; one Runner can serve multiple runs.
type Runner struct {
	Gateway *llm.Gateway
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(gw *llm.Gateway, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Gateway: gw, Logger: logger}
}

// Execute runs ingest → pack → extract → relate → sequence → write →
// assemble and returns the assembled document with per-stage stats.
//
// Cancellation at any point returns a CANCELLED error and no document;
// the pipeline never emits a partial result on cancellation. Failures
// in early stages abort the run before model cost accrues; a single
// chapter's failure late in the run degrades to a placeholder instead
// (reported through Result.Warnings).
func (r *Runner) Execute(ctx context.Context, ref source.Reference, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.ProjectName == "" {
		opts.ProjectName = source.ProjectName(ref)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run_id", result.RunID, "project", opts.ProjectName)
	obs := observability.Stage()

	ingestStart := time.Now()
	obs.OnStageStart(ctx, "ingest", opts.ProjectName)
	files, err := source.Ingest(ctx, ref, opts.Source)
	obs.OnStageComplete(ctx, "ingest", opts.ProjectName, len(files), time.Since(ingestStart), err)
	if err != nil {
		return nil, err
	}
	result.Stats.Files = len(files)
	result.Stats.IngestTime = time.Since(ingestStart)
	logger.Info("ingested source", "files", len(files), "duration", result.Stats.IngestTime)

	batches := batch.Pack(files, opts.TokenBudget)
	result.Stats.Batches = len(batches)
	logger.Info("packed batches", "batches", len(batches), "token_budget", opts.TokenBudget)

	extractStart := time.Now()
	obs.OnStageStart(ctx, "extract", opts.ProjectName)
	abstractions, err := Extract(ctx, r.Gateway, opts, batches, logger)
	obs.OnStageComplete(ctx, "extract", opts.ProjectName, len(abstractions), time.Since(extractStart), err)
	if err != nil {
		return nil, r.stageErr(ctx, err)
	}
	result.Stats.Abstractions = len(abstractions)
	result.Stats.ExtractTime = time.Since(extractStart)
	logger.Info("extracted abstractions", "count", len(abstractions), "duration", result.Stats.ExtractTime)

	relateStart := time.Now()
	obs.OnStageStart(ctx, "relate", opts.ProjectName)
	summary, edges, err := Relate(ctx, r.Gateway, opts, abstractions, files, logger)
	obs.OnStageComplete(ctx, "relate", opts.ProjectName, len(edges), time.Since(relateStart), err)
	if err != nil {
		return nil, r.stageErr(ctx, err)
	}
	result.Stats.Edges = len(edges)
	result.Stats.RelateTime = time.Since(relateStart)
	logger.Info("mapped relationships", "edges", len(edges), "duration", result.Stats.RelateTime)

	plan := Sequence(abstractions, edges)
	logger.Info("sequenced chapters", "order", plan)

	writeStart := time.Now()
	obs.OnStageStart(ctx, "write", opts.ProjectName)
	chapters, warnings, err := WriteChapters(ctx, r.Gateway, opts, plan, abstractions, edges, files, logger)
	obs.OnStageComplete(ctx, "write", opts.ProjectName, len(chapters), time.Since(writeStart), err)
	if err != nil {
		return nil, r.stageErr(ctx, err)
	}
	result.Stats.Chapters = len(chapters)
	result.Stats.WriteTime = time.Since(writeStart)
	result.Warnings = warnings
	logger.Info("wrote chapters", "chapters", len(chapters), "placeholders", len(warnings), "duration", result.Stats.WriteTime)

	assembleStart := time.Now()
	obs.OnStageStart(ctx, "assemble", opts.ProjectName)
	diagram := Mermaid(abstractions, edges)
	markdown, err := Assemble(ctx, r.Gateway, opts, summary, diagram, sourceLabel(ref), chapters)
	obs.OnStageComplete(ctx, "assemble", opts.ProjectName, len(chapters), time.Since(assembleStart), err)
	if err != nil {
		return nil, r.stageErr(ctx, err)
	}
	result.Stats.AssembleTime = time.Since(assembleStart)

	result.Document = &Document{
		ProjectName:  opts.ProjectName,
		Summary:      summary,
		Abstractions: abstractions,
		Edges:        edges,
		Diagram:      diagram,
		Chapters:     chapters,
		Markdown:     markdown,
	}
	logger.Info("assembled tutorial", "bytes", len(markdown), "duration", result.Stats.AssembleTime)
	return result, nil
}

// stageErr maps a mid-run failure under a cancelled context to the
// cancellation code so callers can distinguish "user stopped it" from
// "it broke".
func (r *Runner) stageErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, errors.ErrCodeCancelled) {
		return errors.Wrap(errors.ErrCodeCancelled, err, "run cancelled")
	}
	return err
}

// sourceLabel renders the reference for the document's source line.
func sourceLabel(ref source.Reference) string {
	if ref.Kind == source.KindRemote {
		return "[" + ref.Location + "](" + ref.Location + ")"
	}
	return "`" + ref.Location + "`"
}
