// Package cli implements the appshell command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/appshell/pkg/adaptive"
	"github.com/matzehuels/appshell/pkg/buildinfo"
	"github.com/matzehuels/appshell/pkg/cache"
	"github.com/matzehuels/appshell/pkg/config"
	"github.com/matzehuels/appshell/pkg/fonts"
	"github.com/matzehuels/appshell/pkg/lazy"
	"github.com/matzehuels/appshell/pkg/shell"
	"github.com/matzehuels/appshell/pkg/visits"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// catalogKeyPrefix prefixes the cache key of a fetched catalog. The
	// URL hash follows so changing the URL never serves a stale catalog.
	catalogKeyPrefix = "fonts:catalog:"

	// catalogFetchTimeout bounds a remote catalog fetch.
	catalogFetchTimeout = 30 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	setLevel(c.Logger, level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "appshell resolves themes and fonts for the application shell",
		Long: `appshell is the host-side core of the application shell. It loads the font
catalog on demand, resolves the effective theme and font from preferences and
crazy mode, tracks daily visits, and serves all of it over a small HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/appshell/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the cache backend")

	// Register all subcommands
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.visitCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Component Factories
// =============================================================================

// openCache opens the configured backend, or a NullCache with --no-cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	opts, err := c.cfg.CacheOptions()
	if err != nil {
		return nil, err
	}
	return cache.Open(ctx, opts)
}

// catalogSource builds the font source named by the config. Remote and file
// catalogs are cached in store; the embedded catalog is not.
func (c *CLI) catalogSource(store cache.Cache) fonts.Source {
	cat := c.cfg.Catalog
	switch cat.Source {
	case config.SourceFile:
		return fonts.File(cat.Path)
	case config.SourceURL:
		client := &http.Client{Timeout: catalogFetchTimeout}
		return fonts.Cached(fonts.HTTP(cat.URL, client), store, catalogKey(cat.URL), c.cfg.Cache.TTL)
	default:
		return fonts.Embedded()
	}
}

// newShell wires a shell to store with the configured preferences.
func (c *CLI) newShell(store cache.Cache) *shell.Shell {
	return shell.New(shell.Config{
		Fonts:    fonts.NewCatalogLoader(c.catalogSource(store), lazy.WithLogger(c.Logger)),
		Selector: adaptive.New(store, adaptive.WithLogger(c.Logger)),
		Visits:   visits.NewTracker(store),
		Logger:   c.Logger,
		Preferences: shell.Preferences{
			Theme: c.cfg.Layout.Theme,
			Font:  c.cfg.Layout.Font,
		},
		Themes: c.cfg.Layout.Themes,
	})
}

// catalogKey returns the cache key for the catalog fetched from url.
func catalogKey(url string) string {
	return cache.Key(catalogKeyPrefix, url)
}
