package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/appshell/pkg/cache"
	"github.com/matzehuels/appshell/pkg/config"
	"github.com/matzehuels/appshell/pkg/fonts"
	"github.com/matzehuels/appshell/pkg/lazy"
)

// fontsCommand creates the fonts command with subcommands.
func (c *CLI) fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect the font catalog",
		Long: `Inspect the font catalog.

The catalog source is set in the config file ([catalog] source = embedded,
file or url). Remote catalogs are cached in the configured backend.`,
	}

	cmd.AddCommand(c.fontsListCommand())
	cmd.AddCommand(c.fontsResolveCommand())
	cmd.AddCommand(c.fontsPickCommand())

	return cmd
}

// fontsListCommand creates the "fonts list" subcommand.
func (c *CLI) fontsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the fonts in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, cached, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cat)
			}

			fmt.Println(renderCatalogTable(cat, fonts.Default.Name))
			printCatalogStats(len(cat), c.cfg.Catalog.Source, cached)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")

	return cmd
}

// fontsResolveCommand creates the "fonts resolve" subcommand.
func (c *CLI) fontsResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the style handle for a font name",
		Long: `Print the style handle for a font name.

Names are matched exactly; the first entry wins when the catalog has
duplicates. Unknown names resolve to the default font.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFontNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, _, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			name := args[0]
			d, ok := cat.Lookup(name)
			if !ok {
				printWarning("%q is not in the catalog, using %s", name, fonts.Default.Name)
				d = fonts.Default
			}
			printKeyValue("Name", d.Name)
			printKeyValue("Handle", d.StyleHandle)
			printKeyValue("Family", d.FamilyCSS())
			return nil
		},
	}
}

// fontsPickCommand creates the "fonts pick" subcommand.
func (c *CLI) fontsPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a font interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, _, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			model := NewFontListModel(cat, c.cfg.Layout.Font)
			final, err := tea.NewProgram(model).Run()
			if err != nil {
				return fmt.Errorf("run picker: %w", err)
			}

			m, ok := final.(FontListModel)
			if !ok || m.Selected == nil {
				printInfo("No font selected")
				return nil
			}

			printSuccess("Selected %s", m.Selected.Name)
			printKeyValue("Handle", m.Selected.StyleHandle)
			printNewline()
			printNextStep("Preview", fmt.Sprintf("%s layout --font %q", appName, m.Selected.Name))
			return nil
		},
	}
}

// loadCatalog opens the cache and loads the configured catalog once. The
// boolean reports whether a remote catalog was served from the cache.
func (c *CLI) loadCatalog(ctx context.Context) (fonts.Catalog, bool, error) {
	store, err := c.openCache(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("open cache: %w", err)
	}
	defer closeQuietly(ctx, store)

	cached := false
	if c.cfg.Catalog.Source == config.SourceURL {
		_, cached, _ = store.Get(ctx, catalogKey(c.cfg.Catalog.URL))
	}

	loader := fonts.NewCatalogLoader(c.catalogSource(store), lazy.WithLogger(loggerFromContext(ctx)))
	cat, err := spin(ctx, "Loading font catalog...", loader.EnsureLoaded, catalogSummary)
	if err != nil {
		return nil, false, err
	}

	return cat, cached, nil
}

func catalogSummary(cat fonts.Catalog) string {
	return fmt.Sprintf("Loaded %d fonts", len(cat))
}

// renderCatalogTable renders the catalog with the current font highlighted.
func renderCatalogTable(cat fonts.Catalog, current string) string {
	rows := make([][]string, len(cat))
	for i, d := range cat {
		family := d.Family
		if family == "" {
			family = "-"
		}
		rows[i] = []string{d.Name, d.StyleHandle, family}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Font", "Handle", "Family").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(cat) && cat[row].Name == current {
				return StyleHighlight
			}
			if col == 1 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// closeQuietly closes store and logs a failure at debug level.
func closeQuietly(ctx context.Context, store cache.Cache) {
	if err := store.Close(); err != nil {
		loggerFromContext(ctx).Debug("close cache", "err", err)
	}
}
