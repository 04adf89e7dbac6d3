// Package controllers holds the HTTP handlers. Each controller wraps one
// service and maps its errors to the JSON envelope.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/bind"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/logger"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
)

// fail writes the response for a service or decode error. Unexpected
// errors are logged and answered with a bare 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := services.AsValidation(err); ok {
		response.ValidationError(w, errs)
		return
	}

	var be *bind.Error
	switch {
	case errors.As(err, &be):
		response.Error(w, be.Status, be.Msg)
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrCustomerNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case isFormError(err):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		response.ServerError(w)
	}
}

// isFormError reports whether err rejects a form edit rather than a
// failure of the server.
func isFormError(err error) bool {
	return errors.Is(err, form.ErrUnknownField) ||
		errors.Is(err, form.ErrNotEditable) ||
		errors.Is(err, form.ErrInvalidRows)
}

// idParam reads a positive numeric route parameter.
func idParam(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
