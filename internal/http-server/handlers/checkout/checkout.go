package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"codepool/entity"
	"codepool/lib/api/response"
	"codepool/lib/sl"
)

type Core interface {
	CheckoutLink(ctx context.Context, order *entity.PurchaseOrder) (*entity.Payment, error)
}

// Checkout turns a purchase order into a hosted payment link. Codes are
// only allocated later, when the payment webhook confirms the session.
func Checkout(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.checkout")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var order entity.PurchaseOrder
		if err := render.Bind(r, &order); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		log = log.With(
			slog.String("service", order.Service),
			slog.Int("quantity", order.Quantity),
		)

		payment, err := handler.CheckoutLink(r.Context(), &order)
		if err != nil {
			log.Error("create checkout link", sl.Err(err))
			render.Status(r, response.StatusOf(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Checkout failed: %v", err)))
			return
		}
		log.With(
			slog.String("session_id", payment.Id),
			slog.Int64("amount", payment.Amount),
		).Debug("checkout link created")

		render.JSON(w, r, response.Ok(payment))
	}
}
