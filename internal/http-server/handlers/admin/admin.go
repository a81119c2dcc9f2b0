package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"codepool/entity"
	"codepool/lib/api/cont"
	"codepool/lib/api/response"
	"codepool/lib/sl"
)

type Core interface {
	AddCodes(ctx context.Context, service string, codes []string) (*entity.AddCodesResult, error)
	ResetCodes(ctx context.Context, service string) error
	ImportLegacyCodes(ctx context.Context, service string) (*entity.AddCodesResult, error)
}

// AddCodes replenishes a catalog. The core never checks authorization; the
// admin gate lives here.
func AddCodes(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if !user.IsAdmin() {
			log.Error("admin access required")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Admin access required"))
			return
		}

		var req entity.AddCodesRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		log = log.With(
			slog.String("service", req.Service),
			slog.Int("batch", len(req.Codes)),
			slog.String("user", user.Username),
		)

		result, err := handler.AddCodes(r.Context(), req.Service, req.Codes)
		if err != nil {
			log.Error("add codes", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(
			slog.Int("added", len(result.Added)),
			slog.Int("skipped", len(result.Skipped)),
		).Debug("codes added")

		render.JSON(w, r, response.Ok(result))
	}
}

// Reset clears the used state of one catalog, or all of them when the body
// names no service. Past transactions disappear with it.
func Reset(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if !user.IsAdmin() {
			log.Error("admin access required")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Admin access required"))
			return
		}

		var req entity.ResetRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		log = log.With(
			slog.String("service", req.Service),
			slog.String("user", user.Username),
		)

		if err := handler.ResetCodes(r.Context(), req.Service); err != nil {
			log.Error("reset codes", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.Debug("catalog reset")

		render.JSON(w, r, response.Ok(nil))
	}
}

// Import seeds a catalog from the legacy storefront database.
func Import(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if !user.IsAdmin() {
			log.Error("admin access required")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Admin access required"))
			return
		}

		service := chi.URLParam(r, "service")
		log = log.With(
			slog.String("service", service),
			slog.String("user", user.Username),
		)

		result, err := handler.ImportLegacyCodes(r.Context(), service)
		if err != nil {
			log.Error("legacy import", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Import failed: %v", err)))
			return
		}
		log.With(
			slog.Int("added", len(result.Added)),
			slog.Int("skipped", len(result.Skipped)),
		).Info("legacy codes imported")

		render.JSON(w, r, response.Ok(result))
	}
}
