package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeprimer/codeprimer/pkg/errors"
)

// tutorialFilePattern matches the output naming convention:
// <project>_tutorial_<yyyymmdd>_<hhmmss>.md
var tutorialFilePattern = regexp.MustCompile(`^(.+)_tutorial_(\d{8}_\d{6})\.md$`)

// tutorialFileName builds an output file name for a project at time t.
func tutorialFileName(project string, t time.Time) string {
	return fmt.Sprintf("%s_tutorial_%s.md", project, t.Format("20060102_150405"))
}

// tutorialFile is one discovered output file.
type tutorialFile struct {
	Path      string
	Project   string
	Generated time.Time
	Size      int64
}

// scanTutorials lists every file in dir matching the output naming
// convention, newest first.
func scanTutorials(dir string) ([]tutorialFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []tutorialFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := tutorialFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		generated, err := time.ParseInLocation("20060102_150405", m[2], time.Local)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, tutorialFile{
			Path:      filepath.Join(dir, e.Name()),
			Project:   m[1],
			Generated: generated,
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Generated.Equal(out[j].Generated) {
			return out[i].Generated.After(out[j].Generated)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var dir string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated tutorials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg := *c.Config
				cfg.applyEnv()
				dir = cfg.OutputDir
			}

			tutorials, err := scanTutorials(dir)
			if err != nil {
				return fmt.Errorf("scan %s: %w", dir, err)
			}
			if len(tutorials) == 0 {
				printInfo("No tutorials found in %s", dir)
				printNextStep("Generate one", fmt.Sprintf("%s generate <source>", appName))
				return nil
			}

			if interactive {
				selected, err := pickTutorial(tutorials)
				if err != nil {
					return err
				}
				if selected == nil {
					return nil
				}
				return printTutorial(selected.Path)
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Tutorials in %s", dir)))
			for _, t := range tutorials {
				fmt.Printf("  %s  %s %s\n",
					StyleValue.Render(filepath.Base(t.Path)),
					StyleDim.Render(t.Generated.Format("2006-01-02 15:04")),
					StyleDim.Render(formatSize(t.Size)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", "", "directory to scan (default from config)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a tutorial to read interactively")
	return cmd
}

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "show <tutorial-file>",
		Short: "Print a generated tutorial to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !filepath.IsAbs(path) {
				if _, err := os.Stat(path); os.IsNotExist(err) {
					if dir == "" {
						cfg := *c.Config
						cfg.applyEnv()
						dir = cfg.OutputDir
					}
					path = filepath.Join(dir, args[0])
				}
			}
			return printTutorial(path)
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", "", "directory to resolve relative names against (default from config)")
	return cmd
}

// printTutorial dumps the tutorial's raw markdown to stdout.
func printTutorial(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeNotFound, "tutorial not found: %s", path)
		}
		return err
	}
	fmt.Print(string(data))
	return nil
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
