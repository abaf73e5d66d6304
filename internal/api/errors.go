package api

import (
	"errors"
	"net/http"

	"querypilot/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var unsafe *domain.UnsafeSQLError
	var plan *domain.PlanError
	var execution *domain.ExecutionError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unsafe):
		return http.StatusUnprocessableEntity
	case errors.As(err, &execution):
		return http.StatusUnprocessableEntity
	case errors.As(err, &plan):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
