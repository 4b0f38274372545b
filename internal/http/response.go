package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/repository"
	"github.com/fjod/go_market/internal/service"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func newListResponse[T any](items []T, total int64, page domain.Page) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items: items,
		Pagination: Pagination{
			Page:  page.Number,
			Limit: page.Size,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(page.Size))),
		},
	}
}

func respondJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	respondJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string, fieldErrors ...FieldError) {
	respondJSON(w, status, Envelope{Success: false, Message: message, Errors: fieldErrors})
}

// handleServiceError maps domain, service and repository errors to HTTP
// statuses. Unknown errors are 500 with the raw message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrWishlistNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrProductUnavailable):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrQuantityLimit),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrReviewNotAllowed),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrInvalidRating):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, repository.ErrDuplicateReview),
		errors.Is(err, repository.ErrDuplicateOrderID),
		errors.Is(err, repository.ErrOrderConflict),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrOrderClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
