package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/appshell/pkg/shell"
)

type layoutOptions struct {
	theme  string
	font   string
	crazy  bool
	path   string
	asJSON bool
}

// layoutCommand creates the layout command for resolving the effective
// theme and font.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOptions

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Resolve the effective theme and font",
		Long: `Resolve the effective theme and font.

Preferences come from the config file and can be overridden with --theme and
--font. With --crazy a random theme and font are drawn; --path simulates a
navigation, which draws again while crazy mode is on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.theme, "theme", "", "preferred theme (default from config)")
	cmd.Flags().StringVar(&opts.font, "font", "", "preferred font (default from config)")
	cmd.Flags().BoolVar(&opts.crazy, "crazy", false, "enable crazy mode")
	cmd.Flags().StringVar(&opts.path, "path", "", "navigate to path after resolving")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the layout as JSON")
	_ = cmd.RegisterFlagCompletionFunc("theme", c.completeThemes)
	_ = cmd.RegisterFlagCompletionFunc("font", completeFontNames)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts layoutOptions) error {
	logger := loggerFromContext(ctx)

	store, err := c.openCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeQuietly(ctx, store)

	sh := c.newShell(store)

	prefs := sh.Preferences()
	if opts.theme != "" {
		prefs.Theme = opts.theme
	}
	if opts.font != "" {
		prefs.Font = opts.font
	}
	if err := sh.SetPreferences(ctx, prefs); err != nil {
		return err
	}

	// Resolving a font class needs the catalog; a failure leaves the default.
	if _, err := sh.Fonts().EnsureLoaded(ctx); err != nil {
		logger.Warn("font catalog unavailable, using default font", "err", err)
	}

	if opts.crazy {
		if err := sh.SetCrazyMode(ctx, true); err != nil {
			return err
		}
	}
	if opts.path != "" {
		if err := sh.Navigate(ctx, opts.path); err != nil {
			return err
		}
	}

	layout := sh.Snapshot()
	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(layout)
	}
	printLayout(layout)
	return nil
}

func printLayout(l shell.Layout) {
	printKeyValue("Theme", StyleHighlight.Render(l.Theme))
	printKeyValue("Font", StyleHighlight.Render(l.Font))
	printKeyValue("Class", l.FontClass)
	printKeyValue("Family", l.FontFamily)
	if l.CrazyMode.Enabled {
		printKeyValue("Crazy mode", StyleWarning.Render("on"))
	}
	if l.Path != "" {
		printKeyValue("Path", l.Path)
	}
	printDetail("catalog %s · selector %s", l.CatalogState, l.SelectorState)
}
