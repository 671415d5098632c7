package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/observability"
	"github.com/codeprimer/codeprimer/pkg/source"
	"github.com/codeprimer/codeprimer/pkg/tutorial"
)

// generateFlags holds the generate command's flag values.
type generateFlags struct {
	repo            string
	dir             string
	name            string
	include         []string
	exclude         []string
	maxFileBytes    int64
	maxAbstractions int
	tokenBudget     int
	provider        string
	model           string
	language        string
	output          string
	noCache         bool
	refresh         bool
	diagramSVG      bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate [source]",
		Short: "Generate a tutorial from a repository or local directory",
		Long: `Generate analyzes a codebase and writes a chaptered markdown tutorial.

The source can be a GitHub repository URL or a local directory, given
either as the positional argument or via --repo/--dir. Provider API keys
are read from the environment (GEMINI_API_KEY, OPENAI_API_KEY,
OPENROUTER_API_KEY).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.repo, "repo", "", "GitHub repository URL to analyze")
	flags.StringVar(&f.dir, "dir", "", "local directory to analyze")
	flags.StringVar(&f.name, "name", "", "project name (default: derived from source)")
	flags.StringSliceVar(&f.include, "include", nil, "file patterns to include (default: common source extensions)")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "file patterns to exclude (default: tests, builds, vendored code)")
	flags.Int64Var(&f.maxFileBytes, "max-size", source.DefaultMaxFileBytes, "per-file size ceiling in bytes")
	flags.IntVar(&f.maxAbstractions, "max-abstractions", tutorial.DefaultMaxAbstractions, "maximum number of chapters")
	flags.IntVar(&f.tokenBudget, "token-budget", 0, "per-batch token budget (0 = default)")
	flags.StringVar(&f.provider, "provider", "", "LLM provider (default from config)")
	flags.StringVar(&f.model, "model", "", "model name (default from config)")
	flags.StringVar(&f.language, "language", "", "tutorial language (default from config)")
	flags.StringVarP(&f.output, "output", "o", "", "output directory (default from config)")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the prompt cache")
	flags.BoolVar(&f.refresh, "refresh", false, "ignore cached responses, refresh them")
	flags.BoolVar(&f.diagramSVG, "diagram-svg", false, "also render the relationship diagram as SVG")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, args []string, f generateFlags) error {
	ref, err := resolveSource(args, f)
	if err != nil {
		return err
	}

	cfg := *c.Config
	cfg.applyEnv()
	if f.provider == "" {
		f.provider = cfg.Provider
	}
	if f.model == "" {
		f.model = cfg.Model
	}
	if f.language == "" {
		f.language = cfg.Language
	}
	if f.output == "" {
		f.output = cfg.OutputDir
	}

	runner, err := c.newRunner(cmd.Context(), f.noCache, f.refresh)
	if err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	srcOpts, err := sourceOptions(f, logger)
	if err != nil {
		return err
	}
	opts := tutorial.Options{
		Provider:        f.provider,
		Model:           f.model,
		ProjectName:     f.name,
		Language:        f.language,
		MaxAbstractions: f.maxAbstractions,
		TokenBudget:     f.tokenBudget,
		Source:          srcOpts,
	}

	printInfo("Generating tutorial for %s with %s/%s", StyleValue.Render(ref.Location), f.provider, f.model)

	// Keep the spinner and the run log from fighting over stderr: with
	// a spinner up, only warnings get through, and the spinner follows
	// the run through stage hooks instead.
	ctx := cmd.Context()
	verbose := c.Logger.GetLevel() <= log.DebugLevel
	var spin *Spinner
	if !verbose {
		c.Logger.SetLevel(log.WarnLevel)
		spin = newSpinnerWithContext(ctx, "Analyzing codebase...")
		observability.SetStageHooks(&spinnerStageHooks{spin: spin})
		defer observability.Reset()
		spin.Start()
	}

	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, ref, opts)

	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		if errors.Is(err, errors.ErrCodeEmptyCorpus) {
			printWarning("No files matched the include/exclude patterns; nothing to do")
			return nil
		}
		printError("Generation failed: %s", errors.UserMessage(err))
		return err
	}
	p.done(fmt.Sprintf("Generated %d chapters from %d files", result.Stats.Chapters, result.Stats.Files))

	path, err := writeTutorial(f.output, result)
	if err != nil {
		return err
	}

	printSuccess("Tutorial written")
	printFile(path)
	printDetail("%d abstractions · %d relationships · run %s",
		result.Stats.Abstractions, result.Stats.Edges, result.RunID)
	for _, w := range result.Warnings {
		printWarning("%s", w)
	}

	if f.diagramSVG {
		svgPath, err := writeDiagramSVG(path, result)
		if err != nil {
			printWarning("diagram SVG: %v", err)
		} else {
			printFile(svgPath)
		}
	}

	printNextStep("Read it", fmt.Sprintf("%s show %s", appName, filepath.Base(path)))
	return nil
}

// stageMessages maps pipeline stage names to spinner status lines.
var stageMessages = map[string]string{
	"ingest":   "Reading source files...",
	"extract":  "Identifying core abstractions...",
	"relate":   "Mapping relationships...",
	"write":    "Writing chapters...",
	"assemble": "Assembling the tutorial...",
}

// spinnerStageHooks narrates pipeline progress through the spinner.
type spinnerStageHooks struct {
	observability.NoopStageHooks
	spin *Spinner
}

func (h *spinnerStageHooks) OnStageStart(ctx context.Context, stage, project string) {
	if msg, ok := stageMessages[stage]; ok {
		h.spin.SetMessage(msg)
	}
}

// sourceOptions builds the ingestion filter from the generate flags. The
// default pattern sets apply when the user gives no --include/--exclude of
// their own; user-supplied patterns are validated first so a typo fails
// fast instead of silently matching nothing.
func sourceOptions(f generateFlags, logger *log.Logger) (source.Options, error) {
	for _, p := range f.include {
		if err := errors.ValidateGlobPattern(p); err != nil {
			return source.Options{}, err
		}
	}
	for _, p := range f.exclude {
		if err := errors.ValidateGlobPattern(p); err != nil {
			return source.Options{}, err
		}
	}

	opts := source.DefaultOptions()
	if len(f.include) > 0 {
		opts.IncludePatterns = f.include
	}
	if len(f.exclude) > 0 {
		opts.ExcludePatterns = f.exclude
	}
	opts.MaxFileBytes = f.maxFileBytes
	opts.GitHubToken = os.Getenv("GITHUB_TOKEN")
	opts.Logger = logger
	return opts, nil
}

// resolveSource turns the positional argument or --repo/--dir flags into
// a source reference. URLs go remote, everything else is a directory.
func resolveSource(args []string, f generateFlags) (source.Reference, error) {
	switch {
	case f.repo != "" && f.dir != "":
		return source.Reference{}, errors.New(errors.ErrCodeInvalidInput, "--repo and --dir are mutually exclusive")
	case f.repo != "":
		return source.Reference{Kind: source.KindRemote, Location: f.repo}, nil
	case f.dir != "":
		return source.Reference{Kind: source.KindLocal, Location: f.dir}, nil
	case len(args) == 1:
		if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
			return source.Reference{Kind: source.KindRemote, Location: args[0]}, nil
		}
		return source.Reference{Kind: source.KindLocal, Location: args[0]}, nil
	default:
		return source.Reference{}, errors.New(errors.ErrCodeInvalidInput, "no source given: pass a repository URL or directory, or use --repo/--dir")
	}
}

// writeTutorial writes the document under dir following the output
// naming convention: <project>_tutorial_<timestamp>.md.
func writeTutorial(dir string, result *tutorial.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := tutorialFileName(result.Document.ProjectName, time.Now())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(result.Document.Markdown), 0644); err != nil {
		return "", fmt.Errorf("write tutorial: %w", err)
	}
	return path, nil
}

// writeDiagramSVG renders the relationship graph as SVG next to the
// tutorial file.
func writeDiagramSVG(tutorialPath string, result *tutorial.Result) (string, error) {
	doc := result.Document
	svg, err := tutorial.RenderSVG(tutorial.ToDOT(doc.Abstractions, doc.Edges))
	if err != nil {
		return "", err
	}
	path := strings.TrimSuffix(tutorialPath, ".md") + ".svg"
	if err := os.WriteFile(path, svg, 0644); err != nil {
		return "", err
	}
	return path, nil
}
