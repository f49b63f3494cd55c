package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "demazure",
		Short: "Demazure computes lengths, reduced words and Demazure products in S_n",
		Long: `Demazure answers combinatorial questions about the symmetric group S_n:
Coxeter lengths, reduced words, Demazure products of words, and the subwords
of a word whose Demazure product is a given permutation.

Permutations are written in one-line notation ("3,1,2"), words as lists of
generators ("1,2,1"); the generator i swaps positions i and i+1 and 0 stands
for the identity.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default: demazure.toml in ., $XDG_CONFIG_HOME/demazure, ~/.config/demazure)")
	flags.StringVar(&c.backend, "store", "", "store backend: file, redis, mongo, memory or none")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not read or write the store")
	flags.StringVarP(&c.output, "output", "o", formatText, "output format: text, json, yaml or toml")

	// Queries
	root.AddCommand(c.lengthCommand())
	root.AddCommand(c.wordsCommand())
	root.AddCommand(c.productCommand())
	root.AddCommand(c.subwordsCommand())
	root.AddCommand(c.nonReducedCommand())
	root.AddCommand(c.imagesCommand())

	// Exploration
	root.AddCommand(c.elementsCommand())
	root.AddCommand(c.weakOrderCommand())
	root.AddCommand(c.browseCommand())

	// Administration
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
