// Package batch groups source files into context-window-sized units for
// model calls. Packing is greedy and order-preserving: files never split
// across batches, and a file too large for the budget travels alone in an
// over-budget batch rather than being dropped.
package batch

import (
	"github.com/codeprimer/codeprimer/pkg/source"
)

// DefaultTokenBudget is the per-batch token ceiling used when the caller
// does not supply one. Sized well under common model context windows to
// leave room for instructions and response.
const DefaultTokenBudget = 60_000

// Batch is an ordered group of whole files whose combined token estimate
// fits the budget (except for single oversized files).
type Batch struct {
	Files  []source.File
	Tokens int
}

// EstimateTokens approximates the token count of text. Roughly four bytes
// per token holds across the supported providers' tokenizers; packing
// tolerates the imprecision by keeping budgets conservative.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Pack splits files into batches under tokenBudget, preserving input
// order. A zero or negative budget falls back to DefaultTokenBudget.
// Output is deterministic: the same files and budget always produce the
// same batches.
func Pack(files []source.File, tokenBudget int) []Batch {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	var batches []Batch
	var cur Batch
	for _, f := range files {
		tokens := EstimateTokens(f.Content)
		if len(cur.Files) > 0 && cur.Tokens+tokens > tokenBudget {
			batches = append(batches, cur)
			cur = Batch{}
		}
		cur.Files = append(cur.Files, f)
		cur.Tokens += tokens
	}
	if len(cur.Files) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
