package httpapi

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/rate"
)

var errMalformedBody = errors.New("malformed request body")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps engine sentinels to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrMissingToken):
		return http.StatusBadRequest
	case errors.Is(err, authsvc.ErrIncorrectCredentials), errors.Is(err, authsvc.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, authsvc.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, rate.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, authsvc.ErrEngineNotReady), errors.Is(err, rate.ErrRedisUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text for err. Internal failures are
// never described.
func messageFor(err error) string {
	switch {
	case errors.Is(err, errMalformedBody):
		return "Malformed request body"
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, authsvc.ErrIncorrectCredentials):
		return "Incorrect credentials"
	case errors.Is(err, authsvc.ErrUserAlreadyExists):
		return "User already exists"
	case errors.Is(err, authsvc.ErrMissingToken):
		return "Missing auth token"
	case errors.Is(err, authsvc.ErrInvalidToken):
		return "Invalid auth token"
	case errors.Is(err, rate.ErrRateLimited):
		return "Too many requests"
	case errors.Is(err, authsvc.ErrEngineNotReady), errors.Is(err, rate.ErrRedisUnavailable):
		return "Service unavailable"
	default:
		return "Unexpected error"
	}
}
