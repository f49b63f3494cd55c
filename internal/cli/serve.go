package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/demazure/internal/server"
	"github.com/matzehuels/demazure/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		warm    []int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the queries over HTTP",
		Long: `Serve the queries over HTTP as JSON endpoints under /v1, with /healthz
and Prometheus metrics at /metrics.

--populate enumerates the given values of n before accepting requests.`,
		Example: "  demazure serve --addr :8080 --populate 4,5,6",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewPrometheus(reg)
			observability.SetEnumerationHooks(metrics)
			observability.SetStoreHooks(metrics)
			observability.SetSearchHooks(metrics)
			defer observability.Reset()

			svc, done, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer done()
			if svc.Degraded() {
				printWarning(cmd.ErrOrStderr(), "Serving without persistence")
			}

			for _, n := range warm {
				prog := newProgress(logger)
				if _, err := svc.Populate(ctx, n); err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Populated S_%d", n))
			}

			srv := server.New(svc, server.Options{
				Logger:         logger,
				Metrics:        metrics.Handler(),
				RequestTimeout: timeout,
			})
			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, context.Canceled) {
				logger.Info("shut down")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the config)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-request timeout, 0 for none")
	cmd.Flags().IntSliceVar(&warm, "populate", nil, "values of n to populate before serving")
	return cmd
}
