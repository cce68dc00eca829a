// Package memory provides an in-process article store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/articles-service/internal/article"
)

// ArticleStore keeps articles in a map keyed by a monotonically increasing id.
type ArticleStore struct {
	mu       sync.RWMutex
	nextID   int32
	articles map[int32]article.Article
}

var _ article.Store = (*ArticleStore)(nil)

// NewArticleStore constructs an empty ArticleStore.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		articles: make(map[int32]article.Article),
	}
}

// Create stores a under the next id.
func (s *ArticleStore) Create(_ context.Context, a article.Article) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(a), nil
}

// CreateBatch stores all articles under one lock so readers never see a partial batch.
func (s *ArticleStore) CreateBatch(_ context.Context, articles []article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		s.insertLocked(a)
	}
	return nil
}

func (s *ArticleStore) insertLocked(a article.Article) article.Article {
	s.nextID++
	stored := article.New(a.Title, a.Content, a.Source).WithID(s.nextID)
	s.articles[s.nextID] = stored
	return stored
}

// Get fetches an article by id.
func (s *ArticleStore) Get(_ context.Context, id int32) (article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return article.Article{}, article.ErrNotFound
	}
	return a, nil
}

// List returns a copy of every article ordered by id.
func (s *ArticleStore) List(_ context.Context) ([]article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]article.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	return out, nil
}

// Update overwrites the mutable fields of an existing article; unknown ids are ignored.
func (s *ArticleStore) Update(_ context.Context, id int32, a article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; ok {
		s.articles[id] = article.New(a.Title, a.Content, a.Source).WithID(id)
	}
	return nil
}

// Delete removes an article by id.
func (s *ArticleStore) Delete(_ context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return article.ErrNotFound
	}
	delete(s.articles, id)
	return nil
}

// DeleteBySource removes every article tagged with source.
func (s *ArticleStore) DeleteBySource(_ context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.articles {
		if a.Source == source {
			delete(s.articles, id)
			n++
		}
	}
	if n == 0 {
		return 0, article.ErrNotFound
	}
	return n, nil
}

// Ping always succeeds.
func (s *ArticleStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *ArticleStore) Close() {}
