package api

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/article"
	"github.com/JakeFAU/articles-service/internal/logging"
	"github.com/JakeFAU/articles-service/internal/metrics"
	"github.com/JakeFAU/articles-service/internal/scraper"
	"github.com/JakeFAU/articles-service/internal/wire"
)

// Route names used for logging and metric labels.
const (
	RouteCreate         = "create"
	RouteReadOne        = "read_one"
	RouteReadAll        = "read_all"
	RouteUpdate         = "update"
	RouteDelete         = "delete"
	RouteScrape         = "scrape"
	RouteDeleteBySource = "delete_by_source"
	RouteNotFound       = "not_found"
)

// Static response bodies.
const (
	bodyCreated         = "Article created"
	bodyUpdated         = "Article updated"
	bodyDeleted         = "Article deleted"
	bodyNotFound        = "Article not found"
	bodyError           = "Error"
	bodyScraped         = "Scraping completed"
	bodySourceDeleted   = "Articles deleted"
	bodySourceNotFound  = "No articles found"
	bodyRouteNotFound   = "404 Not Found"
	fetchFailedPrefix   = "Failed to fetch page: "
	invalidSelectorBody = "Invalid selector: "
)

// Scraper is the scrape pipeline the scrape route triggers.
type Scraper interface {
	Run(ctx context.Context) (scraper.Result, error)
	Source() string
}

type handlerFunc func(ctx context.Context, req wire.Request) wire.Response

type route struct {
	name   string
	method string
	prefix string
	handle handlerFunc
}

// matches reports whether raw begins with "<METHOD> <prefix>".
func (r route) matches(raw string) bool {
	return strings.HasPrefix(raw, r.method+" "+r.prefix)
}

// Handler dispatches parsed requests over an ordered route table.
type Handler struct {
	store   article.Store
	scraper Scraper
	routes  []route
	logger  *zap.Logger
}

// NewHandler builds the route table. The scrape routes use the scraper's source tag.
func NewHandler(store article.Store, scr Scraper, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		store:   store,
		scraper: scr,
		logger:  logger,
	}
	h.routes = []route{
		{name: RouteCreate, method: "POST", prefix: "/articles", handle: h.createArticle},
		{name: RouteReadOne, method: "GET", prefix: "/articles/", handle: h.getArticle},
		{name: RouteReadAll, method: "GET", prefix: "/articles", handle: h.listArticles},
		{name: RouteUpdate, method: "PUT", prefix: "/articles/", handle: h.updateArticle},
		{name: RouteDelete, method: "DELETE", prefix: "/articles/", handle: h.deleteArticle},
	}
	if scr != nil {
		source := scr.Source()
		h.routes = append(h.routes,
			route{name: RouteScrape, method: "POST", prefix: "/scrape/" + source, handle: h.scrape},
			route{name: RouteDeleteBySource, method: "DELETE", prefix: "/scrape/source/" + source, handle: h.deleteBySource},
		)
	}
	return h
}

// Handle runs the first matching route and returns its name with the response.
// Unmatched requests get the static 404.
func (h *Handler) Handle(ctx context.Context, req wire.Request) (string, wire.Response) {
	start := time.Now()
	name, resp := RouteNotFound, wire.NotFound(bodyRouteNotFound)
	for _, rt := range h.routes {
		if rt.matches(req.Raw) {
			name = rt.name
			resp = rt.handle(ctx, req)
			break
		}
	}
	metrics.ObserveRequest(name, resp.Status.Code(), time.Since(start))
	return name, resp
}

func (h *Handler) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, h.logger)
}
