package fonts

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/appshell/pkg/cache"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/httputil"
	"github.com/matzehuels/appshell/pkg/observability"
)

//go:embed catalog.toml
var embeddedCatalog []byte

// Source produces a catalog. It is the strategy a host picks at startup;
// the lazy loader calls it at most once successfully.
type Source func(ctx context.Context) (Catalog, error)

// catalogFile is the TOML document layout: a list of [[font]] tables.
type catalogFile struct {
	Fonts Catalog `toml:"font"`
}

// ParseTOML decodes a TOML catalog document and validates it.
func ParseTOML(data []byte) (Catalog, error) {
	var f catalogFile
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidCatalog, err, "parse toml catalog")
	}
	if err := Validate(f.Fonts); err != nil {
		return nil, err
	}
	return f.Fonts, nil
}

// ParseJSON decodes a JSON catalog (an array of descriptors) and validates it.
func ParseJSON(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidCatalog, err, "parse json catalog")
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Embedded returns the catalog bundled into the binary.
func Embedded() Source {
	return func(ctx context.Context) (Catalog, error) {
		return ParseTOML(embeddedCatalog)
	}
}

// File reads a catalog from path. Files ending in .json are parsed as JSON,
// everything else as TOML.
func File(path string) Source {
	return func(ctx context.Context) (Catalog, error) {
		if err := apperrors.ValidatePath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return ParseJSON(data)
		}
		return ParseTOML(data)
	}
}

// HTTP fetches a JSON catalog from url, retrying transient failures.
// A nil client uses the httputil default.
func HTTP(url string, client *http.Client) Source {
	fetcher := httputil.NewFetcher(client)
	return func(ctx context.Context) (Catalog, error) {
		var c Catalog
		if err := fetcher.FetchJSON(ctx, url, &c); err != nil {
			return nil, err
		}
		if err := Validate(c); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Cached wraps src with a read-through cache stored under key. Cache read
// failures and undecodable entries are treated as misses; write failures
// are ignored so the fetched catalog is still returned.
func Cached(src Source, c cache.Cache, key string, ttl time.Duration) Source {
	return func(ctx context.Context) (Catalog, error) {
		hooks := observability.Cache()

		if data, hit, err := c.Get(ctx, key); err == nil && hit {
			if cat, err := ParseJSON(data); err == nil {
				hooks.OnCacheHit(ctx, "catalog")
				return cat, nil
			}
		}
		hooks.OnCacheMiss(ctx, "catalog")

		cat, err := src(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(cat); err == nil {
			if err := c.Set(ctx, key, data, ttl); err == nil {
				hooks.OnCacheSet(ctx, "catalog", len(data))
			}
		}
		return cat, nil
	}
}

// Select returns primary when cond holds and fallback otherwise. Hosts use
// it to pick a source from runtime conditions without branching inside the
// loader.
func Select(cond bool, primary, fallback Source) Source {
	if cond {
		return primary
	}
	return fallback
}

// Static returns a source that always yields c. Useful for tests and for
// hosts that build the catalog in code.
func Static(c Catalog) Source {
	return func(ctx context.Context) (Catalog, error) {
		return c, nil
	}
}
