package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = 30 * time.Second
)

const selectProfile = `SELECT worldview, life_philosophy, personal_values
FROM viewpoint_profiles
WHERE user_id = $1`

// PostgresStore reads the collaborator's viewpoint_profiles table. Recent
// reads are cached briefly since the same user usually asks several
// questions in a row.
type PostgresStore struct {
	db    *sql.DB
	cache *expirable.LRU[string, Viewpoint]
	load  func(ctx context.Context, userID string) (Viewpoint, error)
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping profile store: %w", err)
	}
	s := newCachedStore(nil, defaultCacheSize, defaultCacheTTL)
	s.db = db
	s.load = s.query
	return s, nil
}

func newCachedStore(load func(context.Context, string) (Viewpoint, error), size int, ttl time.Duration) *PostgresStore {
	return &PostgresStore{
		cache: expirable.NewLRU[string, Viewpoint](size, nil, ttl),
		load:  load,
	}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Viewpoint, error) {
	key := normalizeUserID(userID)
	if key == "" {
		return Viewpoint{}, ErrNotFound
	}
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err := s.load(ctx, key)
	if err != nil {
		return Viewpoint{}, err
	}
	s.cache.Add(key, v)
	return v, nil
}

func (s *PostgresStore) query(ctx context.Context, userID string) (Viewpoint, error) {
	var w, lp, vals sql.NullString
	err := s.db.QueryRowContext(ctx, selectProfile, userID).Scan(&w, &lp, &vals)
	if errors.Is(err, sql.ErrNoRows) {
		return Viewpoint{}, ErrNotFound
	}
	if err != nil {
		return Viewpoint{}, fmt.Errorf("query profile: %w", err)
	}
	return Viewpoint{Worldview: w.String, LifePhilosophy: lp.String, Values: vals.String}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
