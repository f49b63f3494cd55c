package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/pkg/demazure"
	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

// =============================================================================
// Results
// =============================================================================

type lengthResult struct {
	N           int       `json:"n" yaml:"n" toml:"n"`
	Permutation perm.Perm `json:"permutation" yaml:"permutation" toml:"permutation"`
	Length      int       `json:"length" yaml:"length" toml:"length"`
}

type wordsResult struct {
	N           int         `json:"n" yaml:"n" toml:"n"`
	Permutation perm.Perm   `json:"permutation" yaml:"permutation" toml:"permutation"`
	Words       []perm.Word `json:"words" yaml:"words" toml:"words"`
}

type productResult struct {
	N           int       `json:"n" yaml:"n" toml:"n"`
	Word        perm.Word `json:"word" yaml:"word" toml:"word"`
	Product     perm.Perm `json:"product" yaml:"product" toml:"product"`
	Length      int       `json:"length" yaml:"length" toml:"length"`
	ReducedWord perm.Word `json:"reduced_word" yaml:"reduced_word" toml:"reduced_word"`
}

type subwordsResult struct {
	N        int                `json:"n" yaml:"n" toml:"n"`
	Word     perm.Word          `json:"word" yaml:"word" toml:"word"`
	Target   perm.Perm          `json:"target" yaml:"target" toml:"target"`
	Count    string             `json:"count" yaml:"count" toml:"count"`
	Subwords []demazure.Subword `json:"subwords,omitempty" yaml:"subwords,omitempty" toml:"subwords,omitempty"`
}

type imagesResult struct {
	N        int         `json:"n" yaml:"n" toml:"n"`
	Word     perm.Word   `json:"word" yaml:"word" toml:"word"`
	Elements []perm.Perm `json:"elements" yaml:"elements" toml:"elements"`
}

// =============================================================================
// Argument Parsing
// =============================================================================

func parseN(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "n must be an integer, got %q", s)
	}
	return n, errs.ValidateN(n)
}

// rankFor returns the -n flag, or the smallest n the word lives in.
func rankFor(flagN int, w perm.Word) int {
	if flagN > 0 {
		return flagN
	}
	return w.ImpliedN()
}

// =============================================================================
// Commands
// =============================================================================

func (c *CLI) lengthCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "length N PERM",
		Short:   "Print the Coxeter length of a permutation",
		Example: "  demazure length 3 3,1,2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseN(args[0])
			if err != nil {
				return err
			}
			p, err := perm.Parse(args[1])
			if err != nil {
				return err
			}
			svc, done, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			l, err := svc.Length(cmd.Context(), n, p)
			if err != nil {
				return err
			}
			res := lengthResult{N: n, Permutation: p, Length: l}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				printKeyValue(w, "permutation", p.String())
				printKeyValue(w, "length", strconv.Itoa(l))
			})
		},
	}
}

func (c *CLI) wordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "words N PERM",
		Short:   "List the reduced words of a permutation",
		Example: "  demazure words 3 3,2,1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseN(args[0])
			if err != nil {
				return err
			}
			p, err := perm.Parse(args[1])
			if err != nil {
				return err
			}
			svc, done, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			words, err := svc.ReducedWords(cmd.Context(), n, p)
			if err != nil {
				return err
			}
			res := wordsResult{N: n, Permutation: p, Words: words}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				for _, word := range words {
					fmt.Fprintln(w, StyleValue.Render(word.String()))
				}
				printDetail(w, "%d reduced words of %s", len(words), p)
			})
		},
	}
}

func (c *CLI) productCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "product WORD",
		Short: "Compute the Demazure product of a word",
		Long: `Compute the Demazure product of a word: fold the word from the left,
multiplying by each generator only when that increases the length.

The generators that were kept form a reduced word of the product.`,
		Example: "  demazure product 1,1,2\n  demazure product 2,1,2,1 -n 4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := perm.ParseWord(args[0])
			if err != nil {
				return err
			}
			rank := rankFor(n, word)
			svc, done, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			p, err := svc.DemazureProduct(cmd.Context(), rank, word)
			if err != nil {
				return err
			}
			kept, err := svc.ReducedWordOf(cmd.Context(), rank, word)
			if err != nil {
				return err
			}
			res := productResult{N: rank, Word: word, Product: p, Length: len(kept), ReducedWord: kept}
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				printKeyValue(w, "product", p.String())
				printKeyValue(w, "length", strconv.Itoa(len(kept)))
				printKeyValue(w, "reduced word", kept.String())
			})
		},
	}
	cmd.Flags().IntVarP(&n, "rank", "n", 0, "rank of the symmetric group (default: largest generator + 1)")
	return cmd
}

func (c *CLI) subwordsCommand() *cobra.Command {
	var (
		n     int
		count bool
	)
	cmd := &cobra.Command{
		Use:   "subwords WORD TARGET",
		Short: "Find the subwords of a word whose Demazure product is TARGET",
		Long: `Find every subword of WORD whose Demazure product is TARGET.

Subwords are printed as the ascending 1-based positions they keep, followed by
the generators at those positions. --count reports only how many there are,
which stays cheap when the subwords themselves are too many to list.`,
		Example: "  demazure subwords 1,2,1 2,1,3\n  demazure subwords 1,2,1,2,1,2 3,2,1 --count",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, err := perm.ParseWord(args[0])
			if err != nil {
				return err
			}
			target, err := perm.Parse(args[1])
			if err != nil {
				return err
			}
			rank := n
			if rank == 0 {
				rank = len(target)
			}
			svc, done, err := c.newService(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			res := subwordsResult{N: rank, Word: word, Target: target}
			if count {
				total, err := svc.SubwordCount(cmd.Context(), rank, word, target)
				if err != nil {
					return err
				}
				res.Count = total.String()
				return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
					printKeyValue(w, "count", res.Count)
				})
			}

			subs, err := svc.SubwordsMultiplyingTo(cmd.Context(), rank, word, target)
			if err != nil {
				return err
			}
			res.Count = strconv.Itoa(len(subs))
			res.Subwords = subs
			return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				for _, s := range subs {
					fmt.Fprintf(w, "%s  %s\n", StyleValue.Render(s.String()), StyleDim.Render(s.Of(word).String()))
				}
				printDetail(w, "%d subwords of %s multiply to %s", len(subs), word, target)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "rank", "n", 0, "rank of the symmetric group (default: size of TARGET)")
	cmd.Flags().BoolVar(&count, "count", false, "only count the subwords")
	return cmd
}

func (c *CLI) nonReducedCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "nonreduced WORD",
		Short: "List the Demazure products reached by non-reduced subwords",
		Long: `List every permutation that is the Demazure product of some subword
whose number of nonzero generators exceeds the permutation's length.`,
		Example: "  demazure nonreduced 1,2,1,2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImages(cmd, args[0], n, true)
		},
	}
	cmd.Flags().IntVarP(&n, "rank", "n", 0, "rank of the symmetric group (default: largest generator + 1)")
	return cmd
}

func (c *CLI) imagesCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:     "images WORD",
		Short:   "List the Demazure products of all subwords of a word",
		Example: "  demazure images 1,2 -n 3",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImages(cmd, args[0], n, false)
		},
	}
	cmd.Flags().IntVarP(&n, "rank", "n", 0, "rank of the symmetric group (default: largest generator + 1)")
	return cmd
}

func (c *CLI) runImages(cmd *cobra.Command, arg string, n int, nonReduced bool) error {
	word, err := perm.ParseWord(arg)
	if err != nil {
		return err
	}
	rank := rankFor(n, word)
	svc, done, err := c.newService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	var images []perm.Perm
	if nonReduced {
		images, err = svc.NonReducedSubwordImages(cmd.Context(), rank, word)
	} else {
		images, err = svc.Images(cmd.Context(), rank, word)
	}
	if err != nil {
		return err
	}
	res := imagesResult{N: rank, Word: word, Elements: images}
	return c.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
		for _, p := range images {
			fmt.Fprintf(w, "%s  %s\n", StyleValue.Render(p.String()), StyleDim.Render(fmt.Sprintf("l=%d", p.Length())))
		}
		printDetail(w, "%d elements", len(images))
	})
}
