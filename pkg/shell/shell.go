// Package shell resolves which theme and font the application renders with
// and starts the background loads the shell depends on.
//
// The effective theme and font come from the user's [Preferences] unless
// crazy mode is on, in which case its randomized picks win. The font's style
// handle is resolved against the lazily loaded catalog and falls back to
// [fonts.Default] until the catalog is available, so rendering never waits
// on the load.
package shell

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/appshell/pkg/adaptive"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/fonts"
	"github.com/matzehuels/appshell/pkg/lazy"
	"github.com/matzehuels/appshell/pkg/visits"
)

// Preferences are the user's persistent choices.
type Preferences struct {
	Theme string `json:"theme"`
	Font  string `json:"font"`
}

// Validate checks the theme ID and font name. An empty font is allowed and
// resolves to the default font.
func (p Preferences) Validate() error {
	if err := apperrors.ValidateThemeID(p.Theme); err != nil {
		return err
	}
	if p.Font == "" {
		return nil
	}
	return apperrors.ValidateFontName(p.Font)
}

// CrazyMode overrides the preferences with random picks that change on
// every navigation.
type CrazyMode struct {
	Enabled        bool   `json:"enabled"`
	ActiveThemeID  string `json:"active_theme_id,omitempty"`
	ActiveFontName string `json:"active_font_name,omitempty"`
}

// Effective returns the theme and font to render with. Crazy mode values
// win only when it is enabled and the value is set.
func Effective(p Preferences, c CrazyMode) (theme, font string) {
	theme, font = p.Theme, p.Font
	if c.Enabled && c.ActiveThemeID != "" {
		theme = c.ActiveThemeID
	}
	if c.Enabled && c.ActiveFontName != "" {
		font = c.ActiveFontName
	}
	return theme, font
}

// Layout is a point-in-time view of the shell.
type Layout struct {
	Theme         string      `json:"theme"`
	Font          string      `json:"font"`
	FontClass     string      `json:"font_class"`
	FontFamily    string      `json:"font_family"`
	Preferences   Preferences `json:"preferences"`
	CrazyMode     CrazyMode   `json:"crazy_mode"`
	Path          string      `json:"path,omitempty"`
	CatalogState  string      `json:"catalog_state"`
	SelectorState string      `json:"selector_state"`
}

// Config wires a Shell's collaborators. Zero fields get defaults: the
// embedded catalog, an in-memory selector, a logging theme applier and no
// visit tracking.
type Config struct {
	Fonts       *fonts.CatalogLoader
	Selector    *adaptive.Selector
	Visits      *visits.Tracker
	Applier     ThemeApplier
	Logger      *log.Logger
	Preferences Preferences
	// Themes is the set crazy mode picks from.
	Themes []string
	Rand   *rand.Rand
	Now    func() time.Time
}

// Shell holds the layout state for one client.
type Shell struct {
	fonts    *fonts.CatalogLoader
	selector *adaptive.Selector
	visits   *visits.Tracker
	applier  ThemeApplier
	logger   *log.Logger
	themes   []string
	now      func() time.Time

	mu    sync.RWMutex
	prefs Preferences
	crazy CrazyMode
	path  string

	rngMu sync.Mutex
	rng   *rand.Rand

	// applyMu serializes theme application so applied matches the last
	// theme handed to the applier.
	applyMu sync.Mutex
	applied string

	wg sync.WaitGroup
}

// New creates a Shell from cfg.
func New(cfg Config) *Shell {
	s := &Shell{
		fonts:    cfg.Fonts,
		selector: cfg.Selector,
		visits:   cfg.Visits,
		applier:  cfg.Applier,
		logger:   cfg.Logger,
		themes:   cfg.Themes,
		now:      cfg.Now,
		prefs:    cfg.Preferences,
		rng:      cfg.Rand,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.fonts == nil {
		s.fonts = fonts.NewCatalogLoader(fonts.Embedded(), lazy.WithLogger(s.logger))
	}
	if s.selector == nil {
		s.selector = adaptive.New(nil, adaptive.WithLogger(s.logger))
	}
	if s.applier == nil {
		s.applier = LogApplier{Logger: s.logger}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if len(s.themes) == 0 && s.prefs.Theme != "" {
		s.themes = []string{s.prefs.Theme}
	}
	return s
}

// Fonts returns the catalog loader.
func (s *Shell) Fonts() *fonts.CatalogLoader { return s.fonts }

// Selector returns the adaptive selector.
func (s *Shell) Selector() *adaptive.Selector { return s.selector }

// Visits returns the visit tracker, nil when tracking is off.
func (s *Shell) Visits() *visits.Tracker { return s.visits }

// Start applies the effective theme and starts the catalog load, the
// selector load and, when visitorID is set, the visit record in the
// background. Failures are logged rather than returned; a failed load is
// retried by the next caller that needs it. Use Wait to block until the
// background work finishes.
func (s *Shell) Start(ctx context.Context, visitorID string) {
	if err := s.applyEffective(ctx); err != nil {
		s.logger.Error("apply theme failed", "err", err)
	}

	s.goLog("load fonts", func() error {
		_, err := s.fonts.EnsureLoaded(ctx)
		return err
	})
	s.goLog("load adaptive weights", func() error {
		return s.selector.EnsureLoaded(ctx)
	})
	if s.visits != nil && visitorID != "" {
		s.goLog("record visit", func() error {
			_, err := s.visits.Record(ctx, visitorID, s.now())
			return err
		})
	}
}

func (s *Shell) goLog(what string, fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.logger.Error(what+" failed", "err", err)
		}
	}()
}

// Wait blocks until the work started by Start is done.
func (s *Shell) Wait() { s.wg.Wait() }

// Preferences returns the current preferences.
func (s *Shell) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetPreferences replaces the preferences and reapplies the theme if the
// effective theme changed.
func (s *Shell) SetPreferences(ctx context.Context, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	return s.applyEffective(ctx)
}

// CrazyMode returns the crazy mode state.
func (s *Shell) CrazyMode() CrazyMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crazy
}

// SetCrazyMode turns crazy mode on or off. Turning it on draws a fresh
// theme and font; turning it off clears them.
func (s *Shell) SetCrazyMode(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	if enabled {
		s.crazy = CrazyMode{Enabled: true}
		s.randomizeLocked()
	} else {
		s.crazy = CrazyMode{}
	}
	s.mu.Unlock()
	return s.applyEffective(ctx)
}

// Navigate records a route change. In crazy mode every navigation draws a
// new theme and font.
func (s *Shell) Navigate(ctx context.Context, path string) error {
	s.mu.Lock()
	s.path = path
	if s.crazy.Enabled {
		s.randomizeLocked()
	}
	s.mu.Unlock()
	return s.applyEffective(ctx)
}

// randomizeLocked draws a theme and a font for crazy mode. Fonts come from
// the loaded catalog, or the default font before it is available. Callers
// hold s.mu.
func (s *Shell) randomizeLocked() {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	if len(s.themes) > 0 {
		s.crazy.ActiveThemeID = s.themes[s.rng.IntN(len(s.themes))]
	}
	cat, ok := s.fonts.Peek()
	if !ok || len(cat) == 0 {
		s.crazy.ActiveFontName = fonts.Default.Name
		return
	}
	s.crazy.ActiveFontName = cat[s.rng.IntN(len(cat))].Name
}

// Effective returns the theme and font currently in effect.
func (s *Shell) Effective() (theme, font string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Effective(s.prefs, s.crazy)
}

// Font returns the descriptor of the effective font. It never blocks on
// the catalog load.
func (s *Shell) Font() fonts.FontDescriptor {
	_, font := s.Effective()
	cat, _ := s.fonts.Peek()
	return cat.Resolve(font)
}

// FontClass returns the style handle of the effective font.
func (s *Shell) FontClass() string {
	return s.Font().StyleHandle
}

// Snapshot returns the current layout.
func (s *Shell) Snapshot() Layout {
	s.mu.RLock()
	prefs, crazy, path := s.prefs, s.crazy, s.path
	s.mu.RUnlock()

	theme, font := Effective(prefs, crazy)
	cat, _ := s.fonts.Peek()
	desc := cat.Resolve(font)
	return Layout{
		Theme:         theme,
		Font:          font,
		FontClass:     desc.StyleHandle,
		FontFamily:    desc.FamilyCSS(),
		Preferences:   prefs,
		CrazyMode:     crazy,
		Path:          path,
		CatalogState:  s.fonts.State().String(),
		SelectorState: s.selector.State().String(),
	}
}

// applyEffective hands the effective theme to the applier when it differs
// from the last one applied.
func (s *Shell) applyEffective(ctx context.Context) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	theme, _ := s.Effective()
	if theme == "" || theme == s.applied {
		return nil
	}
	if err := s.applier.Apply(ctx, theme); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "apply theme %s", theme)
	}
	s.applied = theme
	return nil
}

// AppliedTheme returns the last theme handed to the applier successfully.
func (s *Shell) AppliedTheme() string {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return s.applied
}
