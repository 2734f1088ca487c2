package lookupmatcher

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/rulecheck/internal/common"
)

// cachedResolution is the persisted shape of one resolved-name cache entry.
type cachedResolution struct {
	Name      string `json:"name"`
	Known     bool   `json:"known"`
	Canonical string `json:"canonical,omitempty"`
}

// Cache persists resolved names so repeated checks over the same document
// don't re-hit the external lookup service for names it has already seen.
type Cache struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewCache connects to SurrealDB at address, signs in, selects the given
// namespace/database, and ensures the backing table exists.
func NewCache(ctx context.Context, address, user, pass, namespace, database string, logger *common.Logger) (*Cache, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	db, err := surrealdb.New(address)
	if err != nil {
		return nil, fmt.Errorf("lookupmatcher: connect to cache: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{"user": user, "pass": pass}); err != nil {
		return nil, fmt.Errorf("lookupmatcher: sign in to cache: %w", err)
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("lookupmatcher: select cache namespace/database: %w", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, "DEFINE TABLE IF NOT EXISTS resolved_name SCHEMALESS", nil); err != nil {
		return nil, fmt.Errorf("lookupmatcher: define cache table: %w", err)
	}

	logger.Info().Str("address", address).Str("namespace", namespace).Msg("resolved-name cache connected")

	return &Cache{db: db, logger: logger}, nil
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	c.db.Close(context.Background())
	return nil
}

// Get returns a cached resolution for name, or ok == false if not cached.
func (c *Cache) Get(ctx context.Context, name string) (resolution, bool) {
	rec, err := surrealdb.Select[cachedResolution](ctx, c.db, surrealmodels.NewRecordID("resolved_name", name))
	if err != nil || rec == nil {
		return resolution{}, false
	}
	return resolution{Name: rec.Name, Known: rec.Known, Canonical: rec.Canonical}, true
}

// Put stores r under name, overwriting any prior entry.
func (c *Cache) Put(ctx context.Context, name string, r resolution) error {
	sql := "UPSERT $rid CONTENT $entry"
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID("resolved_name", name),
		"entry": cachedResolution{Name: r.Name, Known: r.Known, Canonical: r.Canonical},
	}
	if _, err := surrealdb.Query[[]cachedResolution](ctx, c.db, sql, vars); err != nil {
		return fmt.Errorf("lookupmatcher: cache put failed: %w", err)
	}
	return nil
}
