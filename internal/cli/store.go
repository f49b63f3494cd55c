package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/store"
	"github.com/matzehuels/demazure/pkg/wordcache"
)

type storeInfo struct {
	Backend  string           `json:"backend" yaml:"backend" toml:"backend"`
	Location string           `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
	Entries  []storeEntryInfo `json:"entries" yaml:"entries" toml:"entries"`
}

type storeEntryInfo struct {
	N        int   `json:"n" yaml:"n" toml:"n"`
	Elements int   `json:"elements" yaml:"elements" toml:"elements"`
	Words    int   `json:"words" yaml:"words" toml:"words"`
	Bytes    int64 `json:"bytes,omitempty" yaml:"bytes,omitempty" toml:"bytes,omitempty"`
}

// storeCommand creates the store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the persistent store of lengths and reduced words",
	}

	cmd.AddCommand(c.storePopulateCommand())
	cmd.AddCommand(c.storeInfoCommand())
	cmd.AddCommand(c.storeRebuildCommand())
	cmd.AddCommand(c.storeDeleteCommand())
	cmd.AddCommand(c.storeClearCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// withCache runs fn with a word cache over the configured store.
func (c *CLI) withCache(cmd *cobra.Command, fn func(*wordcache.Cache) error) error {
	cache, degraded, err := c.newCache(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			loggerFromContext(cmd.Context()).Warn("close store", "error", err)
		}
	}()
	if degraded {
		printWarning(cmd.ErrOrStderr(), "No store in use, nothing will be persisted")
	}
	return fn(cache)
}

func parseNs(args []string) ([]int, error) {
	ns := make([]int, 0, len(args))
	for _, a := range args {
		n, err := parseN(a)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

// populate fills n, reporting whether the data was already stored.
func (c *CLI) populate(cmd *cobra.Command, cache *wordcache.Cache, n int, rebuild bool) error {
	ctx := cmd.Context()
	stored, err := cache.Populated(ctx)
	if err != nil {
		return err
	}
	wasStored := slices.Contains(stored, n) && !rebuild

	spin := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Enumerating S_%d...", n))
	if !wasStored {
		spin.Start()
	}
	prog := newProgress(loggerFromContext(ctx))
	if rebuild {
		_, err = cache.Rebuild(ctx, n)
	} else {
		err = cache.EnsurePopulated(ctx, n)
	}
	if !wasStored {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	entry, err := cache.Entry(ctx, n)
	if err != nil {
		return err
	}
	if !wasStored {
		prog.done(fmt.Sprintf("Populated S_%d", n))
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "S_%d", n)
	printEntryStats(out, entry.Size(), entry.WordCount(), wasStored)
	return nil
}

func (c *CLI) storePopulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "populate N...",
		Short: "Enumerate and store the reduced words of S_n",
		Long: `Enumerate the lengths and reduced words of every element of S_n and store
them. Already stored values of n are left as they are.`,
		Example: "  demazure store populate 4 5 6",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNs(args)
			if err != nil {
				return err
			}
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				for _, n := range ns {
					if err := c.populate(cmd, cache, n, false); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) storeRebuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild N...",
		Short: "Discard and re-enumerate the stored data of S_n",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNs(args)
			if err != nil {
				return err
			}
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				for _, n := range ns {
					if err := c.populate(cmd, cache, n, true); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) storeInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show which values of n are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				ctx := cmd.Context()
				st := cache.Store()
				ns, err := cache.Populated(ctx)
				if err != nil {
					return err
				}
				info := storeInfo{Backend: st.Name(), Entries: []storeEntryInfo{}}
				if loc, ok := st.(store.Locator); ok {
					info.Location = loc.Location()
				}
				for _, n := range ns {
					entry, err := cache.Entry(ctx, n)
					if err != nil {
						return err
					}
					ei := storeEntryInfo{N: n, Elements: entry.Size(), Words: entry.WordCount()}
					if sz, ok := st.(store.Sizer); ok {
						if ei.Bytes, err = sz.Size(ctx, n); err != nil {
							return err
						}
					}
					info.Entries = append(info.Entries, ei)
				}
				return c.emit(cmd.OutOrStdout(), info, func(w io.Writer) { printStoreInfo(w, info) })
			})
		},
	}
}

func printStoreInfo(w io.Writer, info storeInfo) {
	printKeyValue(w, "backend", info.Backend)
	if info.Location != "" {
		printKeyValue(w, "location", info.Location)
	}
	if len(info.Entries) == 0 {
		printInfo(w, "Store is empty")
		return
	}
	for _, e := range info.Entries {
		line := fmt.Sprintf("%s elements, %s reduced words",
			humanize.Comma(int64(e.Elements)), humanize.Comma(int64(e.Words)))
		if e.Bytes > 0 {
			line += ", " + humanize.Bytes(uint64(e.Bytes))
		}
		printKeyValue(w, fmt.Sprintf("S_%d", e.N), line)
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete N...",
		Short: "Remove the stored data of S_n",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNs(args)
			if err != nil {
				return err
			}
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				for _, n := range ns {
					if err := cache.Delete(cmd.Context(), n); err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "Deleted S_%d", n)
				}
				return nil
			})
		},
	}
}

func (c *CLI) storeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				ns, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ns) == 0 {
					printInfo(out, "Store is empty")
					return nil
				}
				printSuccess(out, "Cleared %d stored entries", len(ns))
				if loc, ok := cache.Store().(store.Locator); ok {
					printDetail(out, "Location: %s", loc.Location())
				}
				return nil
			})
		},
	}
}

func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the store keeps its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCache(cmd, func(cache *wordcache.Cache) error {
				loc, ok := cache.Store().(store.Locator)
				if !ok {
					return errs.New(errs.ErrCodeUnsupported, "the %s store has no location", cache.Store().Name())
				}
				fmt.Fprintln(cmd.OutOrStdout(), loc.Location())
				return nil
			})
		},
	}
}
