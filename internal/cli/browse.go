package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/pkg/query"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	paneStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// BrowseModel - Interactive weak order browser
// =============================================================================

// BrowseModel is the bubbletea model for walking the elements of S_n in
// order of length and reading their reduced words.
type BrowseModel struct {
	N        int
	Elements []query.Element
	Cursor   int
	Offset   int
	Height   int
}

// NewBrowseModel creates a browser over elems, which must be ordered by
// length.
func NewBrowseModel(n int, elems []query.Element) BrowseModel {
	return BrowseModel{N: n, Elements: elems, Height: 15}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(m.Cursor - 1)
		case "down", "j":
			m.move(m.Cursor + 1)
		case "right", "l", "pgdown":
			m.move(m.rankStart(m.Elements[m.Cursor].Length + 1))
		case "left", "h", "pgup":
			m.move(m.rankStart(m.Elements[m.Cursor].Length - 1))
		case "home", "g":
			m.move(0)
		case "end", "G":
			m.move(len(m.Elements) - 1)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		m.move(m.Cursor)
	}
	return m, nil
}

// move places the cursor at i, clamped, and scrolls it into view.
func (m *BrowseModel) move(i int) {
	m.Cursor = min(max(i, 0), len(m.Elements)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// rankStart returns the index of the first element of length k, or the
// current cursor when there is none.
func (m BrowseModel) rankStart(k int) int {
	for i, e := range m.Elements {
		if e.Length == k {
			return i
		}
	}
	return m.Cursor
}

// Selected returns the element under the cursor.
func (m BrowseModel) Selected() query.Element {
	return m.Elements[m.Cursor]
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Right weak order of S_%d", m.N)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ element  ←/→ length  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Elements))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		e := m.Elements[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s%-*s %s", cursor, 2*m.N, e.Permutation, listDimStyle.Render(fmt.Sprintf("l=%d", e.Length)))
		list.WriteString(style.Render(line))
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	sel := m.Selected()
	var words strings.Builder
	words.WriteString(StyleNumber.Render(fmt.Sprintf("%d reduced words", len(sel.Words))))
	shown := min(len(sel.Words), max(m.Height-1, 1))
	for _, w := range sel.Words[:shown] {
		words.WriteString("\n" + w.String())
	}
	if rest := len(sel.Words) - shown; rest > 0 {
		words.WriteString("\n" + listDimStyle.Render(fmt.Sprintf("… %d more", rest)))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(list.String()),
		" ",
		paneStyle.Render(words.String()),
	))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Elements))))

	return b.String()
}

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse N",
		Short: "Browse the elements of S_n and their reduced words interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseN(args[0])
			if err != nil {
				return err
			}
			svc, done, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			elems, err := svc.Elements(cmd.Context(), n)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewBrowseModel(n, elems), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
