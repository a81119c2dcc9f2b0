package allocate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"codepool/entity"
	"codepool/lib/api/cont"
	"codepool/lib/api/response"
	"codepool/lib/sl"
)

type Core interface {
	AllocateCodes(ctx context.Context, service, identity string, quantity int) (*entity.Receipt, error)
}

// Allocate reserves codes for the authenticated user. The identity recorded
// on the codes is taken from the session, never from the request body.
func Allocate(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.allocate")

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

		var req entity.AllocateRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		log = log.With(
			slog.String("service", req.Service),
			slog.Int("quantity", req.Quantity),
			slog.String("user", user.Username),
		)

		receipt, err := handler.AllocateCodes(r.Context(), req.Service, user.Identity(), req.Quantity)
		if err != nil {
			log.Error("allocate codes", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Allocation failed: %v", err)))
			return
		}
		log.With(
			slog.String("txn_id", receipt.TxnId),
		).Debug("codes allocated")

		render.JSON(w, r, response.Ok(receipt))
	}
}
