// Package fonts provides the font catalog the shell selects from.
//
// A [Catalog] is an ordered list of [FontDescriptor] values. Lookups are
// first-match by name, so a catalog may contain duplicates and the earlier
// entry wins. When no entry matches, callers fall back to [Default], the
// font that is statically available before any catalog has been loaded.
//
// Catalogs come from a [Source]. The bundled catalog is embedded into the
// binary using go:embed; file, HTTP and cache-backed sources cover the
// other deployments. [NewCatalogLoader] wraps a source in a lazy loader so
// the catalog is fetched at most once per process.
package fonts

import (
	"strings"

	apperrors "github.com/matzehuels/appshell/pkg/errors"
)

// FontDescriptor identifies a selectable font.
type FontDescriptor struct {
	// Name is the human-readable key users select by.
	Name string `toml:"name" json:"name"`

	// StyleHandle is the opaque identifier (a CSS class) that applies the font.
	StyleHandle string `toml:"style_handle" json:"style_handle"`

	// Family is the CSS font-family name. Optional.
	Family string `toml:"family,omitempty" json:"family,omitempty"`

	// Fallback lists generic families used when the font is unavailable.
	Fallback []string `toml:"fallback,omitempty" json:"fallback,omitempty"`
}

// FamilyCSS returns a CSS font-family value: the quoted family followed by
// its fallbacks. An empty Family uses Name.
func (d FontDescriptor) FamilyCSS() string {
	family := d.Family
	if family == "" {
		family = d.Name
	}
	parts := make([]string, 0, len(d.Fallback)+1)
	parts = append(parts, "'"+family+"'")
	parts = append(parts, d.Fallback...)
	return strings.Join(parts, ", ")
}

// Catalog is an ordered sequence of font descriptors.
type Catalog []FontDescriptor

// Default is the font used before a catalog is loaded and whenever a
// requested name is not in the catalog.
var Default = FontDescriptor{
	Name:        "Zen Maru Gothic",
	StyleHandle: "font-zen-maru-gothic",
	Family:      "Zen Maru Gothic",
	Fallback:    []string{"system-ui", "sans-serif"},
}

// Lookup returns the first descriptor whose Name equals name.
func (c Catalog) Lookup(name string) (FontDescriptor, bool) {
	for _, d := range c {
		if d.Name == name {
			return d, true
		}
	}
	return FontDescriptor{}, false
}

// Names returns the descriptor names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, d := range c {
		names[i] = d.Name
	}
	return names
}

// Resolve returns the descriptor for name, or Default when name is not in
// the catalog. A nil catalog always resolves to Default.
func (c Catalog) Resolve(name string) FontDescriptor {
	if d, ok := c.Lookup(name); ok {
		return d
	}
	return Default
}

// ClassName returns the style handle for name, falling back to the default
// font's handle.
func ClassName(c Catalog, name string) string {
	return c.Resolve(name).StyleHandle
}

// Validate checks every descriptor has a usable name and style handle.
// Duplicate names are allowed.
func Validate(c Catalog) error {
	if len(c) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidCatalog, "catalog is empty")
	}
	for i, d := range c {
		if err := apperrors.ValidateFontName(d.Name); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidCatalog, err, "entry %d", i)
		}
		if err := apperrors.ValidateStyleHandle(d.StyleHandle); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidCatalog, err, "entry %d (%s)", i, d.Name)
		}
	}
	return nil
}
