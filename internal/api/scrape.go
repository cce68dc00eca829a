package api

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/article"
	"github.com/JakeFAU/articles-service/internal/scraper"
	"github.com/JakeFAU/articles-service/internal/wire"
)

func (h *Handler) scrape(ctx context.Context, _ wire.Request) wire.Response {
	res, err := h.scraper.Run(ctx)
	switch {
	case err == nil:
		h.log(ctx).Info("scrape completed", zap.Int("inserted", res.Inserted))
		return wire.OK(bodyScraped)
	case errors.Is(err, scraper.ErrFetch):
		h.log(ctx).Error("scrape: fetch failed", zap.Error(err))
		return wire.InternalError(fetchFailedPrefix + err.Error())
	case errors.Is(err, scraper.ErrInvalidSelector):
		h.log(ctx).Error("scrape: invalid selector", zap.Error(err))
		return wire.InternalError(invalidSelectorBody + err.Error())
	default:
		h.log(ctx).Error("scrape failed", zap.Error(err))
		return wire.InternalError(bodyError)
	}
}

func (h *Handler) deleteBySource(ctx context.Context, _ wire.Request) wire.Response {
	source := h.scraper.Source()
	n, err := h.store.DeleteBySource(ctx, source)
	if errors.Is(err, article.ErrNotFound) {
		return wire.NotFound(bodySourceNotFound)
	}
	if err != nil {
		h.log(ctx).Error("delete by source failed", zap.String("source", source), zap.Error(err))
		return wire.InternalError(bodyError)
	}
	h.log(ctx).Info("articles deleted by source", zap.String("source", source), zap.Int64("rows", n))
	return wire.OK(bodySourceDeleted)
}
