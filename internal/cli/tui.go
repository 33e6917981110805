package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flowkit/flowkit/pkg/graphio"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for picking a diagram interactively.
func (c *CLI) browseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [directory]",
		Short: "Pick a diagram from a directory and lay it out",
		Long: `Pick a diagram from a directory and lay it out.

The browse command scans a directory for diagram documents, shows them in an
interactive list with their node and edge counts, and runs layout on the
selected file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := pickDiagram(dir)
			if err != nil || path == "" {
				return err
			}
			return c.runLayout(cmd.Context(), path, layoutRunOpts{})
		},
	}
	return cmd
}

// pickDiagram runs the interactive picker over dir and returns the chosen
// path. An empty path means the user quit without selecting.
func pickDiagram(dir string) (string, error) {
	entries, err := scanDiagrams(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		printInfo("No diagram files found in %s", dir)
		return "", nil
	}
	valid := 0
	for _, e := range entries {
		if e.Valid {
			valid++
		}
	}
	if valid == 0 {
		printWarning("None of the %d JSON files in %s decode as diagrams", len(entries), dir)
		return "", nil
	}

	final, err := tea.NewProgram(newDiagramListModel(entries)).Run()
	if err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}
	picked := final.(diagramListModel).selected
	if picked == nil {
		return "", nil
	}
	return picked.Path, nil
}

// =============================================================================
// Diagram Scanning
// =============================================================================

// diagramEntry is one selectable file with its summary counts.
type diagramEntry struct {
	Path      string
	Direction string
	Nodes     int
	Edges     int
	Groups    int
	Valid     bool
}

// scanDiagrams lists JSON files in dir and summarizes the ones that decode
// as diagram documents. Files that fail to decode stay listed but are
// marked invalid and cannot be selected.
func scanDiagrams(dir string) ([]diagramEntry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	entries := make([]diagramEntry, 0, len(paths))
	for _, path := range paths {
		entry := diagramEntry{Path: path}
		if data, err := os.ReadFile(path); err == nil {
			if g, err := graphio.Unmarshal(data); err == nil {
				entry.Valid = true
				entry.Direction = string(g.Direction)
				entry.Nodes = len(g.Nodes)
				entry.Edges = len(g.Edges)
				entry.Groups = len(g.Groups)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// =============================================================================
// diagramListModel - Interactive diagram selection
// =============================================================================

// diagramListModel is the bubbletea model for interactive diagram selection.
type diagramListModel struct {
	entries  []diagramEntry
	cursor   int
	selected *diagramEntry
	height   int
	offset   int
}

func newDiagramListModel(entries []diagramEntry) diagramListModel {
	return diagramListModel{
		entries: entries,
		height:  15,
	}
}

func (m diagramListModel) Init() tea.Cmd {
	return nil
}

func (m diagramListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			entry := m.entries[m.cursor]
			if !entry.Valid {
				return m, nil
			}
			m.selected = &entry
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m diagramListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Diagram"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ layout  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.entries) {
		end = len(m.entries)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		e := m.entries[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		if !e.Valid {
			rows = append(rows, []string{cursor, filepath.Base(e.Path), "—", "—", "—", "—"})
			continue
		}
		rows = append(rows, []string{
			cursor,
			filepath.Base(e.Path),
			e.Direction,
			fmt.Sprintf("%d", e.Nodes),
			fmt.Sprintf("%d", e.Edges),
			fmt.Sprintf("%d", e.Groups),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Diagram", "Dir", "Nodes", "Edges", "Groups").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.offset + row
			if actualIdx >= len(m.entries) {
				return lipgloss.NewStyle()
			}
			e := m.entries[actualIdx]
			isCurrent := actualIdx == m.cursor

			base := lipgloss.NewStyle()
			if !e.Valid {
				return base.Foreground(colorDim)
			}
			if isCurrent {
				return listSelectedStyle
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))

	return b.String()
}
