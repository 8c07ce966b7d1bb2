package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/middleware"
	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/queue"
	"github.com/iliyamo/portfolio-api/internal/repository"
)

// CacheInvalidator drops cached responses of a resource after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, resource string) error
}

const dbTimeout = 5 * time.Second

// ResourceHandler serves list/get/create/update/delete for one document type.
// Reads are public; the router puts writes behind JWTAuth.
type ResourceHandler[T any, PT interface {
	*T
	model.Document
}] struct {
	Name   string // resource name used for cache groups and events
	Store  repository.DocumentStore[T]
	Cache  CacheInvalidator
	Events queue.Publisher
	Log    logging.Logger
}

func NewResourceHandler[T any, PT interface {
	*T
	model.Document
}](name string, store repository.DocumentStore[T], cache CacheInvalidator, events queue.Publisher, log logging.Logger) *ResourceHandler[T, PT] {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ResourceHandler[T, PT]{Name: name, Store: store, Cache: cache, Events: events, Log: log}
}

// List: GET /<resource>, newest first.
func (h *ResourceHandler[T, PT]) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	docs, err := h.Store.List(ctx)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []T{}
	}
	return c.JSON(http.StatusOK, docs)
}

// Get: GET /<resource>/:id
func (h *ResourceHandler[T, PT]) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	doc, err := h.Store.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, CodeNotFound, h.Name+" not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// bindDocument decodes the body, normalizes it and reports every rule it breaks.
func (h *ResourceHandler[T, PT]) bindDocument(c echo.Context) (*T, []model.FieldError, error) {
	doc := new(T)
	if err := (&echo.DefaultBinder{}).BindBody(c, doc); err != nil {
		return nil, nil, err
	}
	PT(doc).Normalize()
	return doc, PT(doc).Validate(), nil
}

// Create: POST /<resource>
func (h *ResourceHandler[T, PT]) Create(c echo.Context) error {
	doc, fields, err := h.bindDocument(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
	}
	if len(fields) > 0 {
		return validationJSON(c, fields)
	}
	*PT(doc).Base() = model.Meta{} // identity and timestamps are assigned by the store

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Store.Create(ctx, doc); err != nil {
		return err
	}

	h.changed(c, queue.ActionCreated, PT(doc).Base().ID)
	return c.JSON(http.StatusCreated, doc)
}

// Update: PUT /<resource>/:id replaces every mutable field.
func (h *ResourceHandler[T, PT]) Update(c echo.Context) error {
	doc, fields, err := h.bindDocument(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
	}
	if len(fields) > 0 {
		return validationJSON(c, fields)
	}
	*PT(doc).Base() = model.Meta{ID: c.Param("id")}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	err = h.Store.Update(ctx, doc)
	if errors.Is(err, repository.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, CodeNotFound, h.Name+" not found")
	}
	if err != nil {
		return err
	}

	h.changed(c, queue.ActionUpdated, PT(doc).Base().ID)
	return c.JSON(http.StatusOK, doc)
}

// Delete: DELETE /<resource>/:id. Unknown ids still answer 200.
func (h *ResourceHandler[T, PT]) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Store.Delete(ctx, id); err != nil {
		return err
	}

	h.changed(c, queue.ActionDeleted, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// changed drops the resource's cached responses right away, so the next read
// sees the write, and hands the event to the broker in the background.
func (h *ResourceHandler[T, PT]) changed(c echo.Context, action, id string) {
	ctx := c.Request().Context()
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, h.Name); err != nil {
			h.Log.Warn(ctx, "cache invalidation failed", "resource", h.Name, "err", err)
		}
	}

	ev := queue.NewContentChangedEvent(h.Name, action, id, middleware.CurrentUser(c))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()
		if err := h.Events.PublishContentChanged(ctx, ev); err != nil {
			h.Log.Warn(ctx, "event publish failed", "resource", ev.Resource, "action", ev.Action, "err", err)
		}
	}()
}
