package fonts

import (
	"github.com/matzehuels/appshell/pkg/lazy"
)

// CatalogLoader loads a catalog at most once and shares in-flight loads.
type CatalogLoader = lazy.Loader[Catalog]

// NewCatalogLoader wraps src in a lazy loader named "fonts". Options are
// applied after the default name, so WithName overrides it.
func NewCatalogLoader(src Source, opts ...lazy.Option) *CatalogLoader {
	opts = append([]lazy.Option{lazy.WithName("fonts")}, opts...)
	return lazy.New(lazy.LoadFunc[Catalog](src), opts...)
}

// ClassNameFrom returns the style handle for name using whatever catalog
// the loader currently holds. It never blocks: before the catalog is
// loaded, every name resolves to the default font.
func ClassNameFrom(l *CatalogLoader, name string) string {
	cat, _ := l.Peek()
	return ClassName(cat, name)
}
