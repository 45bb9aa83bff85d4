package errutil

import (
	"context"
	"errors"
	"net/http"
)

type CoreStatus string

const (
	StatusBadRequest          CoreStatus = "BAD_REQUEST"
	StatusUnauthorized        CoreStatus = "UNAUTHORIZED"
	StatusForbidden           CoreStatus = "FORBIDDEN"
	StatusNotFound            CoreStatus = "NOT_FOUND"
	StatusValidationFailed    CoreStatus = "VALIDATION_FAILED"
	StatusClientClosedRequest CoreStatus = "CLIENT_CLOSED_REQUEST"
	StatusGatewayTimeout      CoreStatus = "GATEWAY_TIMEOUT"
	StatusInternal            CoreStatus = "INTERNAL"
)

// HTTPStatus converts the CoreStatus to the HTTP status code returned to clients.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusValidationFailed:
		return http.StatusUnprocessableEntity
	case StatusClientClosedRequest:
		return 499
	case StatusGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// From normalises any error into a BaseError so the transport layer can render it.
func From(err error) BaseError {
	var base BaseError
	if errors.As(err, &base) {
		return base
	}

	if errors.Is(err, context.Canceled) {
		return BaseError{Code: StatusClientClosedRequest, Message: "request canceled", Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return BaseError{Code: StatusGatewayTimeout, Message: "deadline exceeded", Err: err}
	}

	return BaseError{Code: StatusInternal, Message: "internal error", Err: err}
}

// Is reports whether err carries the given status.
func Is(err error, code CoreStatus) bool {
	var base BaseError
	return errors.As(err, &base) && base.Code == code
}
