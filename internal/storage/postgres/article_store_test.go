package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/articles-service/internal/article"
)

func newMockStore(t *testing.T) (*ArticleStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewArticleStoreWithPool(mock, "articles")
	require.NoError(t, err)
	return store, mock
}

func TestNewArticleStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewArticleStoreWithPool(nil, "articles")
	require.ErrorContains(t, err, "pool is required")

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewArticleStoreWithPool(mock, "articles; DROP TABLE x")
	require.ErrorContains(t, err, "invalid table name")

	store, err := NewArticleStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, DefaultTable, store.table)
}

func TestNewArticleStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewArticleStore(context.Background(), StoreConfig{})
	require.ErrorContains(t, err, "db.dsn is required")
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnError(errors.New("permission denied"))

	err := store.EnsureSchema(context.Background())
	require.ErrorContains(t, err, "create table articles: permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReturnsAssignedID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO articles").
		WithArgs("A", "B", "C").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int32(7)))

	got, err := store.Create(context.Background(), article.New("A", "B", "C"))
	require.NoError(t, err)
	require.NotNil(t, got.ID)
	require.Equal(t, int32(7), *got.ID)
	require.Equal(t, "A", got.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchCommits(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	batch := []article.Article{
		article.New("One", "1. One", "imdb"),
		article.New("Two", "2. Two", "imdb"),
	}
	mock.ExpectBegin()
	for _, a := range batch {
		mock.ExpectExec("INSERT INTO articles").
			WithArgs(a.Title, a.Content, a.Source).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.CreateBatch(context.Background(), batch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	batch := []article.Article{
		article.New("One", "1. One", "imdb"),
		article.New("Two", "2. Two", "imdb"),
		article.New("Three", "3. Three", "imdb"),
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO articles").
		WithArgs("One", "1. One", "imdb").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO articles").
		WithArgs("Two", "2. Two", "imdb").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.CreateBatch(context.Background(), batch)
	require.ErrorContains(t, err, "insert article 1: connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, title, content, source FROM articles WHERE id").
		WithArgs(int32(3)).
		WillReturnRows(mock.NewRows([]string{"id", "title", "content", "source"}).
			AddRow(int32(3), "A", "B", "C"))

	got, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, article.New("A", "B", "C").WithID(3), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, title, content, source FROM articles WHERE id").
		WithArgs(int32(2147483647)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), 2147483647)
	require.ErrorIs(t, err, article.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, title, content, source FROM articles WHERE id").
		WithArgs(int32(1)).
		WillReturnError(errors.New("boom"))

	_, err := store.Get(context.Background(), 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, article.ErrNotFound)
}

func TestListReturnsRowsInOrder(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, title, content, source FROM articles ORDER BY id").
		WillReturnRows(mock.NewRows([]string{"id", "title", "content", "source"}).
			AddRow(int32(1), "A", "B", "C").
			AddRow(int32(2), "D", "E", "F"))

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []article.Article{
		article.New("A", "B", "C").WithID(1),
		article.New("D", "E", "F").WithID(2),
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, title, content, source FROM articles ORDER BY id").
		WillReturnRows(mock.NewRows([]string{"id", "title", "content", "source"}))

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestUpdateIgnoresMissingRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE articles SET title").
		WithArgs("A", "B", "C", int32(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, store.Update(context.Background(), 999, article.New("A", "B", "C")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM articles WHERE id").
		WithArgs(int32(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM articles WHERE id").
		WithArgs(int32(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.Delete(context.Background(), 4))
	require.ErrorIs(t, store.Delete(context.Background(), 4), article.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBySource(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM articles WHERE source").
		WithArgs("imdb").
		WillReturnResult(pgxmock.NewResult("DELETE", 10))
	mock.ExpectExec("DELETE FROM articles WHERE source").
		WithArgs("imdb").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	n, err := store.DeleteBySource(context.Background(), "imdb")
	require.NoError(t, err)
	require.Equal(t, int64(10), n)

	_, err = store.DeleteBySource(context.Background(), "imdb")
	require.ErrorIs(t, err, article.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	require.NoError(t, store.Ping(context.Background()))
	require.ErrorContains(t, store.Ping(context.Background()), "ping postgres: down")
	require.NoError(t, mock.ExpectationsWereMet())
}
