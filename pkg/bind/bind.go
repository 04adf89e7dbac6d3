// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/pkg/validate"
)

// Error is a body that could not be decoded. Status is the HTTP status a
// handler should answer with.
type Error struct {
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// maxBodyBytes returns the configured request body size limit (default 4 MB).
func maxBodyBytes() int64 {
	n := config.Int("MAX_BODY_BYTES", 4<<20)
	if n <= 0 {
		return 4 << 20
	}
	return int64(n)
}

// Decode reads r.Body as JSON into dest without validating it. Numbers
// decode as json.Number so money keeps its exact digits.
func Decode(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes())
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &Error{Status: http.StatusRequestEntityTooLarge,
				Msg: fmt.Sprintf("request body too large (max %d bytes)", maxErr.Limit), Err: err}
		case errors.Is(err, io.EOF):
			return &Error{Status: http.StatusBadRequest, Msg: "request body is empty", Err: err}
		default:
			return &Error{Status: http.StatusBadRequest, Msg: "invalid JSON: " + err.Error(), Err: err}
		}
	}
	return nil
}

// JSON decodes r.Body into dest and runs struct validation.
// Returns (errs, nil) when there are validation failures and (nil, err)
// when the body is malformed or too large.
func JSON(r *http.Request, dest any) (errs map[string]string, err error) {
	if err := Decode(r, dest); err != nil {
		return nil, err
	}
	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// Status maps a Decode error to an HTTP status.
func Status(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return http.StatusBadRequest
}
