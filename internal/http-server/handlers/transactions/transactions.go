package transactions

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
	TransactionsByService(ctx context.Context, service string) ([]entity.TransactionSummary, error)
	TransactionByOwner(ctx context.Context, identity, txnId string) ([]entity.TransactionCode, error)
}

// List returns the transaction summaries of one catalog. Admin only: the
// listing exposes every buyer of that catalog.
func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.transactions")

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
		log = log.With(slog.String("service", service))

		rows, err := handler.TransactionsByService(r.Context(), service)
		if err != nil {
			log.Error("list transactions", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(slog.Int("count", len(rows))).Debug("transactions listed")

		render.JSON(w, r, response.Ok(rows))
	}
}

// Retrieve returns the caller's own transaction, scanned across every
// catalog.
func Retrieve(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.transactions")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user := cont.GetUser(r.Context())
		if user.Username == "" {
			log.Error("user not found")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("User not found"))
			return
		}

		txnId := chi.URLParam(r, "id")
		log = log.With(
			slog.String("txn_id", txnId),
			slog.String("user", user.Username),
		)

		codes, err := handler.TransactionByOwner(r.Context(), user.Identity(), txnId)
		if err != nil {
			log.Error("retrieve transaction", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(slog.Int("count", len(codes))).Debug("transaction retrieved")

		render.JSON(w, r, response.Ok(codes))
	}
}
