// Package postgres provides the Postgres-backed article store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/articles-service/internal/article"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable is used when StoreConfig.Table is empty.
const DefaultTable = "articles"

// StoreConfig controls the Postgres connection pool used for article rows.
type StoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it too.
type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
	Ping(context.Context) error
	Close()
}

// ArticleStore implements article.Store on top of a bounded pgx pool.
type ArticleStore struct {
	pool  pool
	table string
}

var _ article.Store = (*ArticleStore)(nil)

// NewArticleStore creates the pool described by cfg and verifies it with a ping.
func NewArticleStore(ctx context.Context, cfg StoreConfig) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := resolveTable(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &ArticleStore{pool: p, table: table}, nil
}

// NewArticleStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewArticleStoreWithPool(p pool, table string) (*ArticleStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := resolveTable(table)
	if err != nil {
		return nil, err
	}
	return &ArticleStore{pool: p, table: table}, nil
}

func resolveTable(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the articles table when it does not exist yet.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	title VARCHAR NOT NULL,
	content TEXT NOT NULL,
	source VARCHAR NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Create inserts a and returns it with the id assigned by the SERIAL column.
func (s *ArticleStore) Create(ctx context.Context, a article.Article) (article.Article, error) {
	query := fmt.Sprintf(`INSERT INTO %s (title, content, source) VALUES ($1, $2, $3) RETURNING id`, s.table)
	var id int32
	if err := s.pool.QueryRow(ctx, query, a.Title, a.Content, a.Source).Scan(&id); err != nil {
		return article.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return a.WithID(id), nil
}

// CreateBatch inserts every article inside one transaction.
func (s *ArticleStore) CreateBatch(ctx context.Context, articles []article.Article) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (title, content, source) VALUES ($1, $2, $3)`, s.table)
	for i, a := range articles {
		if _, err := tx.Exec(ctx, query, a.Title, a.Content, a.Source); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return fmt.Errorf("insert article %d: %w (rollback: %v)", i, err, rbErr)
			}
			return fmt.Errorf("insert article %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Get fetches one article by id.
func (s *ArticleStore) Get(ctx context.Context, id int32) (article.Article, error) {
	query := fmt.Sprintf(`SELECT id, title, content, source FROM %s WHERE id = $1`, s.table)
	var (
		rowID int32
		a     article.Article
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(&rowID, &a.Title, &a.Content, &a.Source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return a.WithID(rowID), nil
}

// List returns every article ordered by id.
func (s *ArticleStore) List(ctx context.Context) ([]article.Article, error) {
	query := fmt.Sprintf(`SELECT id, title, content, source FROM %s ORDER BY id`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]article.Article, 0)
	for rows.Next() {
		var (
			id int32
			a  article.Article
		)
		if err := rows.Scan(&id, &a.Title, &a.Content, &a.Source); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a.WithID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

// Update overwrites the mutable fields. Zero affected rows is not reported.
func (s *ArticleStore) Update(ctx context.Context, id int32, a article.Article) error {
	query := fmt.Sprintf(`UPDATE %s SET title = $1, content = $2, source = $3 WHERE id = $4`, s.table)
	if _, err := s.pool.Exec(ctx, query, a.Title, a.Content, a.Source, id); err != nil {
		return fmt.Errorf("update article %d: %w", id, err)
	}
	return nil
}

// Delete removes one article by id.
func (s *ArticleStore) Delete(ctx context.Context, id int32) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return article.ErrNotFound
	}
	return nil
}

// DeleteBySource removes every article whose source equals source exactly.
func (s *ArticleStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE source = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, source)
	if err != nil {
		return 0, fmt.Errorf("delete articles with source %q: %w", source, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, article.ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// Ping checks that a pooled connection can reach the server.
func (s *ArticleStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
