package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/appshell/pkg/fonts"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FontListModel - Interactive font selection
// =============================================================================

// FontListModel is the bubbletea model for interactive font selection.
type FontListModel struct {
	Fonts    fonts.Catalog
	Current  string
	Cursor   int
	Selected *fonts.FontDescriptor
	Height   int
	Offset   int
}

// NewFontListModel creates a font list model with the cursor on current,
// or on the first entry when current is not in the catalog.
func NewFontListModel(cat fonts.Catalog, current string) FontListModel {
	m := FontListModel{
		Fonts:   cat,
		Current: current,
		Height:  15,
	}
	for i, d := range cat {
		if d.Name == current {
			m.Cursor = i
			break
		}
	}
	if m.Cursor >= m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

func (m FontListModel) Init() tea.Cmd {
	return nil
}

func (m FontListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Fonts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Fonts) == 0 {
				return m, tea.Quit
			}
			d := m.Fonts[m.Cursor]
			m.Selected = &d
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

func (m FontListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Font"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Fonts) == 0 {
		b.WriteString(listDimStyle.Render("  catalog is empty"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Fonts))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Fonts[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if d.Name == m.Current {
			mark = "✓"
		}
		rows = append(rows, []string{cursor, d.Name, d.StyleHandle, mark})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Font", "Handle", "Current").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 2:
				return listDimStyle
			case col == 3:
				return StyleSuccess
			default:
				return listNormalStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Fonts))))

	return b.String()
}
