package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/appshell/internal/server"
	"github.com/matzehuels/appshell/pkg/cache"
)

// sweepInterval is how often expired entries are dropped from an in-memory
// cache while serving.
const sweepInterval = 5 * time.Minute

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

The server shares one shell between all requests, so the font catalog and the
adaptive weights are loaded at most once however many requests arrive while
the load is in flight. Keys are prefixed with "appshell:" so redis and mongo
backends can be shared with other services.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	logger := loggerFromContext(ctx)

	store, err := c.openCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeQuietly(ctx, store)

	if mc, ok := store.(*cache.MemoryCache); ok {
		go sweep(ctx, mc)
	}

	sh := c.newShell(cache.NewScoped(store, appName+":"))
	sh.Start(ctx, "")

	printInfo("Serving on %s", StyleHighlight.Render(c.cfg.Server.Addr))
	err = server.New(sh, logger).ListenAndServe(ctx, c.cfg.Server)
	sh.Wait()
	return err
}

func sweep(ctx context.Context, mc *cache.MemoryCache) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mc.Sweep(); n > 0 {
				loggerFromContext(ctx).Debug("swept expired cache entries", "count", n)
			}
		}
	}
}
