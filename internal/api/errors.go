package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/survival-arcade/internal/arcade"
	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

// Error types reported in ErrorResponse.Type.
const (
	ErrTypeValidation = "VALIDATION_ERROR"
	ErrTypeConflict   = "CONFLICT"
	ErrTypeFunds      = "INSUFFICIENT_FUNDS"
	ErrTypeInventory  = "INSUFFICIENT_INVENTORY"
	ErrTypeNoGame     = "NO_ACTIVE_GAME"
	ErrTypeClosed     = "UNAVAILABLE"
	ErrTypeInternal   = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// classify maps a domain error to a status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusConflict, ErrTypeFunds
	case errors.Is(err, wallet.ErrInsufficientInventory):
		return http.StatusConflict, ErrTypeInventory
	case errors.Is(err, shop.ErrAlreadyOwned):
		return http.StatusConflict, ErrTypeConflict
	case errors.Is(err, session.ErrNoActiveGame):
		return http.StatusConflict, ErrTypeNoGame
	case errors.Is(err, session.ErrInvalidBet),
		errors.Is(err, shop.ErrInvalidStake),
		errors.Is(err, shop.ErrUnknownItem),
		errors.Is(err, games.ErrUnknownAction),
		errors.Is(err, arcade.ErrUnknownGame):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, arcade.ErrClosed):
		return http.StatusServiceUnavailable, ErrTypeClosed
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, typ := classify(err)
	requestID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Printf("error request_id=%s path=%s err=%v", requestID, r.URL.Path, err)
	}
	writeJSON(w, status, ErrorResponse{Type: typ, Message: err.Error(), RequestID: requestID})
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Type:      ErrTypeValidation,
		Message:   message,
		Field:     field,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
