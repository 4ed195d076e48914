// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func OK(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message, Error: http.StatusText(status)})
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrMisconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError translates err into an envelope. Client errors carry their
// message; server-side failures are logged and answered generically.
func FromError(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Errorf("Request failed: %v", err)
		Fail(w, status, genericMessage(status))
	case errors.Is(err, service.ErrInvalidCredentials):
		Fail(w, status, "Invalid email or password")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		log.Debugf("Request denied: %v", err)
		Fail(w, status, genericMessage(status))
	default:
		Fail(w, status, err.Error())
	}
}

func genericMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "You do not have permission to perform this action"
	case http.StatusServiceUnavailable:
		return "Service is temporarily unavailable"
	case http.StatusBadGateway:
		return "An upstream service failed, please try again later"
	default:
		return "Internal server error"
	}
}
