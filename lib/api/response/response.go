package response

import (
	"errors"
	"net/http"

	"codepool/entity"
	"codepool/lib/clock"
)

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// StatusOf maps core error kinds to HTTP status codes. Unrecognized errors
// are treated as internal.
func StatusOf(err error) int {
	var validation *entity.ValidationError
	var insufficient *entity.InsufficientStockError
	var store *entity.StoreError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnknownCatalog), errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrOutOfStock), errors.As(err, &insufficient):
		return http.StatusConflict
	case errors.Is(err, entity.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.As(err, &store):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
