// Package api defines the Huma API routes and handlers.
package api

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/catalog"
	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
)

// Services holds the dependencies of the API handlers. Nil members turn
// their routes into 503s.
type Services struct {
	Layer   *service.LayerService
	Source  *service.SourceService
	Builder *service.Builder
	Catalog *catalog.Store
	DB      *sql.DB
	Logger  *slog.Logger
}

// APIHandler holds the REST handlers. Methods named Register* are
// discovered by huma.AutoRegister.
type APIHandler struct {
	svc    *Services
	logger *slog.Logger
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(svc *Services) *APIHandler {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers every REST route and derives the Link headers
// from the registered paths.
func RegisterRoutes(api huma.API, svc *Services, links *humastar.Links) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc).RegisterRoutes(api)
	NewDBHandler(svc.DB).RegisterRoutes(api)
	if links != nil {
		links.Discover(api, "/health", "editor")
		links.Add("/api/v1/layers", "/api/v1/sources", "sources")
		links.Add("/api/v1/layers", "/api/v1/maps", "maps")
		links.Add("/api/v1/sources", "/api/v1/layers", "layers")
		links.Add("/api/v1/viz/compile", "/api/v1/layers", "layers")
	}
}

// apiError maps domain errors to HTTP errors.
func (h *APIHandler) apiError(err error) error {
	return toHTTP(h.logger, err)
}

func toHTTP(logger *slog.Logger, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errdefs.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, errdefs.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, errdefs.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, errdefs.ErrUnsupportedOperation):
		return huma.Error400BadRequest(err.Error())
	}
	logger.Error("request failed", "error", err)
	return huma.Error500InternalServerError("internal error", err)
}

func unavailable(what string) error {
	return huma.Error503ServiceUnavailable(what + " not available")
}

// MessageBody is a plain result message.
type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// Version is the API version.
const Version = "1.0.0"
