package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation, core.ErrCatConsensus:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatState:
		if domErr.Code == core.CodeNotReady {
			return http.StatusServiceUnavailable, true
		}
		return http.StatusInternalServerError, true
	case core.ErrCatExecution:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondError sends a JSON error response with a plain message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError maps err onto a status code and JSON body.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var domErr *core.DomainError
	errors.As(err, &domErr)
	respondJSON(w, status, errorResponse{
		Error:     domErr.Message,
		Code:      domErr.Code,
		Retryable: domErr.Retryable,
		Details:   domErr.Details,
	})
}
