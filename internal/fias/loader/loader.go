// Package loader resolves FIAS tables to the handlers that import them.
//
// Handlers are grouped into named sets. The built-in set is registered under
// DefaultSet; deployments register their own set under another path and
// point fias.loaders_path at it to override individual tables.
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

// DefaultSet is the path of the built-in loader set.
const DefaultSet = "fias.importer.loader"

// Result holds the outcome of a table load.
type Result struct {
	RowsLoaded  int64          `json:"rows_loaded"`
	RowsSkipped int64          `json:"rows_skipped"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Options tunes a table load.
type Options struct {
	BatchSize int
}

// Handler imports one FIAS table.
type Handler interface {
	// Table returns the descriptor the handler was built for.
	Table() model.Table

	// Load reads records from src until io.EOF and writes them to Postgres.
	Load(ctx context.Context, pool db.Pool, src Source, opts Options) (*Result, error)
}

// Factory builds the handler for a table.
type Factory func(table model.Table) Handler

// Set maps table full names to handler factories.
type Set map[string]Factory

// UnknownTableError reports a table with no handler in any loader set.
type UnknownTableError struct {
	Name string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("loader: unknown table %q", e.Name)
}

var (
	sets   = make(map[string]Set)
	setsMu sync.RWMutex
)

// RegisterSet makes a loader set available under path.
// Panics if a set is already registered under the same path or if any
// factory in set is nil.
func RegisterSet(path string, set Set) {
	setsMu.Lock()
	defer setsMu.Unlock()

	if _, exists := sets[path]; exists {
		panic(fmt.Sprintf("loader set already registered: %s", path))
	}
	copied := make(Set, len(set))
	for name, f := range set {
		if f == nil {
			panic(fmt.Sprintf("loader set %s: nil factory for %s", path, name))
		}
		copied[name] = f
	}
	sets[path] = copied
}

// lookup returns the factory registered for name under path.
func lookup(path, name string) (Factory, bool) {
	setsMu.RLock()
	defer setsMu.RUnlock()

	set, ok := sets[path]
	if !ok {
		return nil, false
	}
	f, ok := set[name]
	return f, ok
}

// names returns the table names registered under path, sorted.
func names(path string) []string {
	setsMu.RLock()
	defer setsMu.RUnlock()

	out := make([]string, 0, len(sets[path]))
	for name := range sets[path] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolver finds the handler for a table, preferring the custom loader set.
// It does not cache: every Resolve repeats the lookup.
type Resolver struct {
	customPath  string
	defaultPath string
}

// NewResolver creates a resolver. An empty customPath disables the custom tier.
func NewResolver(customPath string) *Resolver {
	return &Resolver{customPath: customPath, defaultPath: DefaultSet}
}

// Resolve builds the handler for table. A table missing from the custom set
// (or a custom set that was never registered) falls back to the default set;
// a table missing from both yields *UnknownTableError.
func (r *Resolver) Resolve(table model.Table) (Handler, error) {
	factory, _ := r.factory(table.FullName)
	if factory == nil {
		return nil, &UnknownTableError{Name: table.FullName}
	}
	return factory(table), nil
}

// Origin reports which set serves name: the custom path, the default path,
// or "" when neither does.
func (r *Resolver) Origin(name string) string {
	_, path := r.factory(name)
	return path
}

func (r *Resolver) factory(name string) (Factory, string) {
	if r.customPath != "" {
		if f, ok := lookup(r.customPath, name); ok {
			return f, r.customPath
		}
	}
	if f, ok := lookup(r.defaultPath, name); ok {
		return f, r.defaultPath
	}
	return nil, ""
}

// Tables lists every table name the resolver can serve, sorted.
func (r *Resolver) Tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, path := range []string{r.customPath, r.defaultPath} {
		if path == "" {
			continue
		}
		for _, name := range names(path) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}
