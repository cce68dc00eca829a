package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/article"
	"github.com/JakeFAU/articles-service/internal/wire"
)

func (h *Handler) createArticle(ctx context.Context, req wire.Request) wire.Response {
	a, err := article.Decode(req.Body)
	if err != nil {
		h.log(ctx).Warn("create: invalid body", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	created, err := h.store.Create(ctx, a)
	if err != nil {
		h.log(ctx).Error("create: insert failed", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	if created.ID != nil {
		h.log(ctx).Debug("article created", zap.Int32("id", *created.ID))
	}
	return wire.OK(bodyCreated)
}

func (h *Handler) getArticle(ctx context.Context, req wire.Request) wire.Response {
	id, err := parseID(req.ID)
	if err != nil {
		h.log(ctx).Warn("read: invalid id", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	a, err := h.store.Get(ctx, id)
	if errors.Is(err, article.ErrNotFound) {
		return wire.NotFound(bodyNotFound)
	}
	if err != nil {
		h.log(ctx).Error("read: query failed", zap.Int32("id", id), zap.Error(err))
		return wire.InternalError(bodyError)
	}
	return h.encode(ctx, a)
}

func (h *Handler) listArticles(ctx context.Context, _ wire.Request) wire.Response {
	articles, err := h.store.List(ctx)
	if err != nil {
		h.log(ctx).Error("list: query failed", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return h.encode(ctx, articles)
}

func (h *Handler) updateArticle(ctx context.Context, req wire.Request) wire.Response {
	id, err := parseID(req.ID)
	if err != nil {
		h.log(ctx).Warn("update: invalid id", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	a, err := article.Decode(req.Body)
	if err != nil {
		h.log(ctx).Warn("update: invalid body", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	if err := h.store.Update(ctx, id, a); err != nil {
		h.log(ctx).Error("update: statement failed", zap.Int32("id", id), zap.Error(err))
		return wire.InternalError(bodyError)
	}
	return wire.OK(bodyUpdated)
}

func (h *Handler) deleteArticle(ctx context.Context, req wire.Request) wire.Response {
	id, err := parseID(req.ID)
	if err != nil {
		h.log(ctx).Warn("delete: invalid id", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	err = h.store.Delete(ctx, id)
	if errors.Is(err, article.ErrNotFound) {
		return wire.NotFound(bodyNotFound)
	}
	if err != nil {
		h.log(ctx).Error("delete: statement failed", zap.Int32("id", id), zap.Error(err))
		return wire.InternalError(bodyError)
	}
	return wire.OK(bodyDeleted)
}

func (h *Handler) encode(ctx context.Context, v any) wire.Response {
	raw, err := json.Marshal(v)
	if err != nil {
		h.log(ctx).Error("encode response failed", zap.Error(err))
		return wire.InternalError(bodyError)
	}
	return wire.OK(string(raw))
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", raw, err)
	}
	return int32(id), nil
}
