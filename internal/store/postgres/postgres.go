// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New opens the database at databaseURL, sizes the pool and applies any
// pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an existing handle without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateProperty(ctx context.Context, p *model.Property) error {
	return queryCreateProperty(ctx, s.db, p)
}

func (s *PostgresStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	return queryGetProperty(ctx, s.db, id)
}

func (s *PostgresStore) ListProperties(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, int, error) {
	return queryListProperties(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateProperty(ctx context.Context, p *model.Property) error {
	return queryUpdateProperty(ctx, s.db, p)
}

func (s *PostgresStore) DeleteProperty(ctx context.Context, id string) error {
	return queryDeleteProperty(ctx, s.db, id)
}

func (s *PostgresStore) FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error) {
	return queryFeaturedProperties(ctx, s.db, limit)
}

func (s *PostgresStore) CreateBlogPost(ctx context.Context, post *model.BlogPost) error {
	return queryCreateBlogPost(ctx, s.db, post)
}

func (s *PostgresStore) GetBlogPost(ctx context.Context, id string) (*model.BlogPost, error) {
	return queryGetBlogPost(ctx, s.db, id)
}

func (s *PostgresStore) ListBlogPosts(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, int, error) {
	return queryListBlogPosts(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateBlogPost(ctx context.Context, post *model.BlogPost) error {
	return queryUpdateBlogPost(ctx, s.db, post)
}

func (s *PostgresStore) DeleteBlogPost(ctx context.Context, id string) error {
	return queryDeleteBlogPost(ctx, s.db, id)
}

func (s *PostgresStore) DeleteBlogPosts(ctx context.Context, ids []string) ([]string, error) {
	return queryDeleteBlogPosts(ctx, s.db, ids)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvents(ctx context.Context, subjectID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.db, subjectID)
}

// RunInTransaction runs fn against a store bound to a single transaction,
// committing when fn returns nil and rolling back otherwise.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateProperty(ctx context.Context, p *model.Property) error {
	return queryCreateProperty(ctx, s.tx, p)
}

func (s *txStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	return queryGetProperty(ctx, s.tx, id)
}

func (s *txStore) ListProperties(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, int, error) {
	return queryListProperties(ctx, s.tx, filter)
}

func (s *txStore) UpdateProperty(ctx context.Context, p *model.Property) error {
	return queryUpdateProperty(ctx, s.tx, p)
}

func (s *txStore) DeleteProperty(ctx context.Context, id string) error {
	return queryDeleteProperty(ctx, s.tx, id)
}

func (s *txStore) FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error) {
	return queryFeaturedProperties(ctx, s.tx, limit)
}

func (s *txStore) CreateBlogPost(ctx context.Context, post *model.BlogPost) error {
	return queryCreateBlogPost(ctx, s.tx, post)
}

func (s *txStore) GetBlogPost(ctx context.Context, id string) (*model.BlogPost, error) {
	return queryGetBlogPost(ctx, s.tx, id)
}

func (s *txStore) ListBlogPosts(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, int, error) {
	return queryListBlogPosts(ctx, s.tx, filter)
}

func (s *txStore) UpdateBlogPost(ctx context.Context, post *model.BlogPost) error {
	return queryUpdateBlogPost(ctx, s.tx, post)
}

func (s *txStore) DeleteBlogPost(ctx context.Context, id string) error {
	return queryDeleteBlogPost(ctx, s.tx, id)
}

func (s *txStore) DeleteBlogPosts(ctx context.Context, ids []string) ([]string, error) {
	return queryDeleteBlogPosts(ctx, s.tx, ids)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) GetEvents(ctx context.Context, subjectID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.tx, subjectID)
}

// RunInTransaction on a txStore reuses the open transaction.
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
