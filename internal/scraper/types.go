package scraper

import (
	"context"
	"net/http"
	"time"

	"github.com/JakeFAU/articles-service/internal/article"
)

// FetchRequest describes the single page fetch a scrape performs.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the fetched page.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// BatchCreator is the slice of article.Store the scraper writes through.
type BatchCreator interface {
	CreateBatch(ctx context.Context, articles []article.Article) error
}

// Result summarizes one scrape run.
type Result struct {
	Titles   []string
	Inserted int
}
