package shell

import (
	"context"

	"github.com/charmbracelet/log"
)

// ThemeApplier makes a theme visible. Implementations live with the
// renderer; the shell only decides which theme to apply and when.
type ThemeApplier interface {
	Apply(ctx context.Context, themeID string) error
}

// ApplierFunc adapts a function to ThemeApplier.
type ApplierFunc func(ctx context.Context, themeID string) error

// Apply calls f.
func (f ApplierFunc) Apply(ctx context.Context, themeID string) error {
	return f(ctx, themeID)
}

// LogApplier only logs the theme. It is the default for headless hosts.
type LogApplier struct {
	Logger *log.Logger
}

// Apply logs themeID at info level.
func (a LogApplier) Apply(ctx context.Context, themeID string) error {
	if a.Logger != nil {
		a.Logger.Info("theme applied", "theme", themeID)
	}
	return nil
}
