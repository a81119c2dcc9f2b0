package errors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"codepool/lib/api/response"
)

func NotAllowed(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}
