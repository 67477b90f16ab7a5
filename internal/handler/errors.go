package handler

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// errorResponse is the uniform error payload. FieldErrors enumerates every
// violated field at once so a client can render the whole form in one pass.
type errorResponse struct {
	Message     string            `json:"message"`
	ErrorCode   string            `json:"error_code"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func validationError(err error, now time.Time) errorResponse {
	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	} else if err != nil {
		fields["_"] = err.Error()
	}
	return errorResponse{
		Message:     "validation failed",
		ErrorCode:   "VALIDATION_ERROR",
		FieldErrors: fields,
		Timestamp:   now,
	}
}

func conflictError(field, msg string, now time.Time) errorResponse {
	return errorResponse{
		Message:     "registration failed",
		ErrorCode:   "USER_EXISTS",
		FieldErrors: map[string]string{field: msg},
		Timestamp:   now,
	}
}
