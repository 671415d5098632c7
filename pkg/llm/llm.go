// Package llm routes model calls through a single gateway that fronts
// the configured providers with caching, retry, and deadlines.
//
// Every pipeline stage that talks to a model goes through Gateway.Call.
// Responses are cached by a hash of (provider, model, prompt), so
// re-running a pipeline with unchanged input replays from cache instead
// of paying for the calls again. Transient provider failures (rate
// limits, timeouts, 5xx) are retried with backoff; permanent failures
// (bad credentials, malformed requests) surface immediately.
package llm

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codeprimer/codeprimer/pkg/cache"
	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/httputil"
	"github.com/codeprimer/codeprimer/pkg/observability"
)

// Client generates text through one provider. Implementations classify
// their transport failures: transient ones are wrapped with
// httputil.Retryable so the gateway knows to retry them.
type Client interface {
	// Name identifies the provider (e.g. "gemini", "openai").
	Name() string

	// Generate sends prompt to model and returns the response text.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Defaults for gateway behavior.
const (
	DefaultCallTimeout     = 3 * time.Minute
	DefaultRetryAttempts   = 3
	DefaultRetryDelay      = time.Second
	DefaultMaxPromptTokens = 200_000
)

// Options configures a Gateway.
type Options struct {
	// Cache stores responses keyed by prompt hash. Nil disables caching.
	Cache cache.Cache

	// Refresh bypasses cache reads (writes still happen), forcing fresh
	// provider calls.
	Refresh bool

	// CallTimeout bounds each individual provider call. Exceeding it
	// counts as a transient failure and is retried.
	CallTimeout time.Duration

	// MaxPromptTokens caps the estimated prompt size. Longer prompts are
	// truncated in the middle before dispatch.
	MaxPromptTokens int

	// RetryDelay is the initial backoff between attempts; it doubles on
	// each retry. Zero uses DefaultRetryDelay.
	RetryDelay time.Duration

	// Logger receives per-call debug output.
	Logger *log.Logger
}

// Gateway dispatches prompts to registered providers.
type Gateway struct {
	clients    map[string]Client
	cache      cache.Cache
	keyer      cache.Keyer
	refresh    bool
	timeout    time.Duration
	maxTok     int
	retryDelay time.Duration
	logger     *log.Logger
}

// NewGateway creates a gateway over the given providers.
func NewGateway(clients []Client, opts Options) *Gateway {
	byName := make(map[string]Client, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}
	store := opts.Cache
	if store == nil {
		store = cache.NewNullCache()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.MaxPromptTokens <= 0 {
		opts.MaxPromptTokens = DefaultMaxPromptTokens
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Gateway{
		clients:    byName,
		cache:      store,
		keyer:      cache.NewDefaultKeyer(),
		refresh:    opts.Refresh,
		timeout:    opts.CallTimeout,
		maxTok:     opts.MaxPromptTokens,
		retryDelay: opts.RetryDelay,
		logger:     logger,
	}
}

// Providers returns the names of the registered clients.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.clients))
	for name := range g.clients {
		names = append(names, name)
	}
	return names
}

// Call sends prompt to the named provider and model, consulting the
// cache first. The prompt is truncated to the gateway's token ceiling
// before the cache key is computed, so truncated and untruncated
// variants of the same oversized prompt share an entry.
func (g *Gateway) Call(ctx context.Context, provider, model, prompt string) (string, error) {
	client, ok := g.clients[provider]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidProvider, "unknown provider: %s", provider)
	}

	prompt = FitPrompt(prompt, g.maxTok)
	key := g.keyer.PromptKey(provider, model, prompt)
	start := time.Now()

	if !g.refresh {
		if data, found, err := g.cache.Get(ctx, key); err == nil && found {
			g.logger.Debug("llm cache hit", "provider", provider, "model", model, "key", key)
			observability.Cache().OnCacheHit(ctx, "prompt")
			observability.Model().OnModelResponse(ctx, provider, model, len(data), true, time.Since(start))
			return string(data), nil
		}
		observability.Cache().OnCacheMiss(ctx, "prompt")
	}

	g.logger.Debug("llm call", "provider", provider, "model", model, "prompt_bytes", len(prompt))
	observability.Model().OnModelCall(ctx, provider, model, len(prompt))

	var response string
	err := httputil.Retry(ctx, DefaultRetryAttempts, g.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		out, err := client.Generate(callCtx, model, prompt)
		if err != nil {
			// A deadline we imposed is transient; the parent being done
			// is not our call to retry.
			if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return httputil.Retryable(err)
			}
			return err
		}
		response = out
		return nil
	})
	if err != nil {
		observability.Model().OnModelError(ctx, provider, model, err)
		if ctx.Err() != nil {
			return "", errors.Wrap(errors.ErrCodeCancelled, err, "call cancelled")
		}
		return "", errors.Wrap(errors.ErrCodeProvider, err, "%s call failed", provider)
	}

	g.logger.Debug("llm response", "provider", provider, "model", model,
		"bytes", len(response), "duration", time.Since(start))
	observability.Model().OnModelResponse(ctx, provider, model, len(response), false, time.Since(start))

	if err := g.cache.Set(ctx, key, []byte(response), cache.TTLPrompt); err != nil {
		g.logger.Debug("cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "prompt", len(response))
	}
	return response, nil
}

// truncationMarker replaces the removed middle of an oversized prompt.
const truncationMarker = "\n\n... [content truncated to fit context window] ...\n\n"

// FitPrompt truncates prompt to approximately maxTokens by removing the
// middle, keeping the head and tail intact. Instructions tend to live at
// both ends of a prompt; the middle holds bulk file content that
// degrades most gracefully.
func FitPrompt(prompt string, maxTokens int) string {
	if maxTokens <= 0 {
		return prompt
	}
	maxBytes := maxTokens * 4
	if len(prompt) <= maxBytes {
		return prompt
	}
	keep := (maxBytes - len(truncationMarker)) / 2
	if keep < 1 {
		keep = 1
	}
	return prompt[:keep] + truncationMarker + prompt[len(prompt)-keep:]
}
