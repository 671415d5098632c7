// Package cli implements the codeprimer command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codeprimer/codeprimer/pkg/buildinfo"
	"github.com/codeprimer/codeprimer/pkg/cache"
	"github.com/codeprimer/codeprimer/pkg/llm"
	"github.com/codeprimer/codeprimer/pkg/llm/gemini"
	"github.com/codeprimer/codeprimer/pkg/llm/openai"
	"github.com/codeprimer/codeprimer/pkg/tutorial"
)

// appName is the application name used for directories and display.
const appName = "codeprimer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the config
// file (if any) loaded.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: loadConfigOrDefault(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Codeprimer turns codebases into beginner-friendly tutorials",
		Long:         `Codeprimer analyzes a source repository with an LLM, identifies its core abstractions, and generates a chaptered markdown tutorial explaining the codebase to newcomers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Commands retrieve the logger from their context so tests can
	// substitute one.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner wired to the configured providers.
func (c *CLI) newRunner(ctx context.Context, noCache, refresh bool) (*tutorial.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}

	clients, err := c.newClients(ctx)
	if err != nil {
		return nil, err
	}

	gw := llm.NewGateway(clients, llm.Options{
		Cache:   store,
		Refresh: refresh,
		Logger:  c.Logger,
	})
	return tutorial.NewRunner(gw, c.Logger), nil
}

// newClients builds every provider client the environment has
// credentials for. Unconfigured providers are omitted rather than
// failing; the gateway rejects calls to unknown providers later.
func (c *CLI) newClients(ctx context.Context) ([]llm.Client, error) {
	var clients []llm.Client

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		g, err := gemini.New(ctx, key)
		if err != nil {
			return nil, err
		}
		clients = append(clients, g)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		o, err := openai.New(openai.Config{APIKey: key, BaseURL: c.Config.OpenAIBaseURL})
		if err != nil {
			return nil, err
		}
		clients = append(clients, o)
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		o, err := openai.New(openai.Config{
			APIKey:       key,
			BaseURL:      "https://openrouter.ai/api/v1",
			ProviderName: "openrouter",
		})
		if err != nil {
			return nil, err
		}
		clients = append(clients, o)
	}
	return clients, nil
}

// newCache selects the prompt-cache backend: redis when configured,
// otherwise sharded files under the XDG cache dir (in-memory when no
// home directory exists), or nothing at all with --no-cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.RedisAddr,
			Password: c.Config.RedisPassword,
			DB:       c.Config.RedisDB,
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewMemoryCache(cache.DefaultMemoryEntries, cache.TTLPrompt), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/codeprimer/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
