package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/pkg/query"
	"github.com/matzehuels/demazure/pkg/weakorder"
)

type elementsResult struct {
	N        int             `json:"n" yaml:"n" toml:"n"`
	Elements []query.Element `json:"elements" yaml:"elements" toml:"elements"`
}

func (c *CLI) elementsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "elements N",
		Short:   "Tabulate every element of S_n with its length and reduced words",
		Example: "  demazure elements 3\n  demazure elements 4 -o json",
		Args:    cobra.ExactArgs(1),
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
			res := elementsResult{N: n, Elements: elems}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintln(w, elementsTable(elems))
				words := lo.SumBy(elems, func(e query.Element) int { return len(e.Words) })
				printDetail(w, "S_%d: %s elements, %s reduced words", n,
					humanize.Comma(int64(len(elems))), humanize.Comma(int64(words)))
			})
		},
	}
}

// elementsTable renders one row per element: its one-line notation, length,
// number of reduced words and the lexicographically first of them.
func elementsTable(elems []query.Element) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := lo.Map(elems, func(e query.Element, _ int) []string {
		first := "()"
		if len(e.Words) > 0 {
			first = e.Words[0].String()
		}
		return []string{e.Permutation.String(), strconv.Itoa(e.Length), strconv.Itoa(len(e.Words)), first}
	})
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Permutation", "Length", "Words", "First word").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 || col == 2 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) weakOrderCommand() *cobra.Command {
	var svgPath string
	cmd := &cobra.Command{
		Use:   "weakorder N",
		Short: "Draw the Hasse diagram of the right weak order on S_n",
		Long: fmt.Sprintf(`Draw the Hasse diagram of the right weak order on S_n. Each edge
w -> w·s_i is labelled with its generator.

Prints Graphviz DOT by default; --svg renders the diagram with Graphviz.
Diagrams are limited to %d elements (n <= 6).`, weakorder.MaxDiagramElements),
		Example: "  demazure weakorder 3\n  demazure weakorder 4 --svg s4.svg",
		Args:    cobra.ExactArgs(1),
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

			entry, err := svc.Populate(cmd.Context(), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if svgPath == "" {
				dot, err := weakorder.ToDOT(entry)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, dot)
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			svg, err := weakorder.RenderSVG(cmd.Context(), entry)
			if err != nil {
				return err
			}
			if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", svgPath, err)
			}
			prog.done(fmt.Sprintf("Rendered S_%d", n))
			printSuccess(out, "Weak order diagram of S_%d", n)
			printFile(out, svgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&svgPath, "svg", "", "render an SVG file instead of printing DOT")
	return cmd
}
