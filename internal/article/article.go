// Package article defines the article record and the persistence contract shared
// by the HTTP handlers, the scraper, and the storage backends.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no row matched the requested key.
var ErrNotFound = errors.New("article not found")

// Article is the sole persisted record. ID is nil until storage assigns it.
type Article struct {
	ID      *int32 `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// New builds an unsaved article.
func New(title, content, source string) Article {
	return Article{Title: title, Content: content, Source: source}
}

// WithID returns a copy of a carrying the given storage id.
func (a Article) WithID(id int32) Article {
	a.ID = &id
	return a
}

// Store is implemented by every article backend.
type Store interface {
	// Create inserts a and returns it with the assigned id.
	Create(ctx context.Context, a Article) (Article, error)
	// CreateBatch inserts all articles atomically.
	CreateBatch(ctx context.Context, articles []Article) error
	// Get returns ErrNotFound when id does not exist.
	Get(ctx context.Context, id int32) (Article, error)
	// List returns every article ordered by id; never nil.
	List(ctx context.Context) ([]Article, error)
	// Update overwrites title, content and source. A missing id is not an error.
	Update(ctx context.Context, id int32, a Article) error
	// Delete returns ErrNotFound when no row was removed.
	Delete(ctx context.Context, id int32) error
	// DeleteBySource removes every article tagged source and reports how many.
	// It returns ErrNotFound when nothing matched.
	DeleteBySource(ctx context.Context, source string) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

type payload struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Source  *string `json:"source"`
}

// Decode parses a request body. title, content and source must all be present;
// unknown keys and any id are ignored.
func Decode(body string) (Article, error) {
	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Article{}, fmt.Errorf("decode article: %w", err)
	}
	switch {
	case p.Title == nil:
		return Article{}, errors.New("decode article: missing field title")
	case p.Content == nil:
		return Article{}, errors.New("decode article: missing field content")
	case p.Source == nil:
		return Article{}, errors.New("decode article: missing field source")
	}
	return New(*p.Title, *p.Content, *p.Source), nil
}
