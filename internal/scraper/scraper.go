// Package scraper turns a ranking page into article rows: one fetch, one CSS
// selection, at most Limit rank/title pairs, one batch insert.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/article"
	"github.com/JakeFAU/articles-service/internal/metrics"
)

var (
	// ErrFetch wraps network failures, non-2xx statuses and non-text bodies.
	ErrFetch = errors.New("fetch page")
	// ErrInvalidSelector means the configured CSS selector does not compile.
	ErrInvalidSelector = errors.New("invalid selector")
)

// Config controls what is scraped and how rows are tagged.
type Config struct {
	URL            string
	Selector       string
	Source         string
	Limit          int
	AcceptLanguage string
}

// Limiter paces outbound fetches.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithLimiter makes every run wait on l before fetching.
func WithLimiter(l Limiter) Option {
	return func(s *Scraper) {
		s.limiter = l
	}
}

// Scraper runs the fetch, parse and insert pipeline.
type Scraper struct {
	fetcher Fetcher
	store   BatchCreator
	limiter Limiter
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Scraper.
func New(fetcher Fetcher, store BatchCreator, cfg Config, logger *zap.Logger, opts ...Option) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the tag applied to scraped rows.
func (s *Scraper) Source() string {
	return s.cfg.Source
}

// Run fetches the configured page and inserts up to Limit articles.
func (s *Scraper) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := s.run(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ObserveScrape(s.cfg.Source, status, res.Inserted, time.Since(start))
	return res, err
}

func (s *Scraper) run(ctx context.Context) (Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.cfg.URL); err != nil {
			return Result{}, fmt.Errorf("%w %s: %w", ErrFetch, s.cfg.URL, err)
		}
	}
	req := FetchRequest{URL: s.cfg.URL, Headers: http.Header{}}
	if s.cfg.AcceptLanguage != "" {
		req.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
	}
	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w %s: %w", ErrFetch, s.cfg.URL, err)
	}
	if ct := resp.Headers.Get("Content-Type"); !isTextual(ct) {
		return Result{}, fmt.Errorf("%w %s: unsupported content type %q", ErrFetch, s.cfg.URL, ct)
	}
	s.logger.Debug("page fetched",
		zap.String("url", resp.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", resp.Duration),
	)

	titles, err := ExtractTitles(resp.Body, s.cfg.Selector, s.cfg.Limit)
	if err != nil {
		return Result{}, err
	}
	articles := BuildArticles(titles, s.cfg.Source)
	if len(articles) > 0 {
		if err := s.store.CreateBatch(ctx, articles); err != nil {
			return Result{Titles: titles}, fmt.Errorf("insert scraped articles: %w", err)
		}
	}
	s.logger.Info("scrape completed",
		zap.String("url", s.cfg.URL),
		zap.String("source", s.cfg.Source),
		zap.Int("inserted", len(articles)),
	)
	return Result{Titles: titles, Inserted: len(articles)}, nil
}

// ExtractTitles returns the trimmed text of the elements matching selector, in
// document order, stopping after limit elements. A limit <= 0 keeps all matches.
func ExtractTitles(body []byte, selector string, limit int) ([]string, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSelector, selector, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	titles := make([]string, 0)
	doc.FindMatcher(matcher).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		titles = append(titles, strings.TrimSpace(sel.Text()))
		return limit <= 0 || len(titles) < limit
	})
	return titles, nil
}

// BuildArticles pairs each title with its 1-based rank.
func BuildArticles(titles []string, source string) []article.Article {
	out := make([]article.Article, 0, len(titles))
	for i, title := range titles {
		out = append(out, article.New(title, fmt.Sprintf("%d. %s", i+1, title), source))
	}
	return out
}

// isTextual accepts text/* and the XML-flavoured HTML types. A missing header is accepted.
func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/xhtml+xml", mediaType == "application/xml":
		return true
	default:
		return false
	}
}
