package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// tutorialListModel is the bubbletea model for interactive tutorial
// selection in `list -i`.
type tutorialListModel struct {
	Tutorials []tutorialFile
	Cursor    int
	Selected  *tutorialFile
	Height    int
	Offset    int
}

func newTutorialListModel(tutorials []tutorialFile) tutorialListModel {
	return tutorialListModel{
		Tutorials: tutorials,
		Height:    15,
	}
}

func (m tutorialListModel) Init() tea.Cmd {
	return nil
}

func (m tutorialListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Tutorials)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			t := m.Tutorials[m.Cursor]
			m.Selected = &t
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m tutorialListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Tutorial"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ read  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Tutorials) {
		end = len(m.Tutorials)
	}

	for i := m.Offset; i < end; i++ {
		t := m.Tutorials[i]
		line := fmt.Sprintf("%s  %s · %s",
			t.Project,
			formatRelativeTime(t.Generated),
			formatSize(t.Size))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// pickTutorial runs the interactive picker. A nil result without error
// means the user quit without choosing.
func pickTutorial(tutorials []tutorialFile) (*tutorialFile, error) {
	final, err := tea.NewProgram(newTutorialListModel(tutorials)).Run()
	if err != nil {
		return nil, fmt.Errorf("interactive list: %w", err)
	}
	m, ok := final.(tutorialListModel)
	if !ok {
		return nil, nil
	}
	return m.Selected, nil
}

// formatRelativeTime renders a timestamp as "3h ago" style text.
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
