// Package apierror turns ledger and service errors into HTTP problems with a
// stable code.
package apierror

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

const CodeConflict = "CONFLICT"

// Error is the body of every failed ledger request.
type Error struct {
	status  int
	Code    string `json:"code" doc:"Stable error code"`
	Message string `json:"message" doc:"Human readable description"`
}

var _ huma.StatusError = (*Error)(nil)

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) GetStatus() int {
	return e.status
}

// From maps err onto an API error. Storage failures are reported without
// their cause.
func From(err error) *Error {
	code := service.Code(err)
	switch {
	case code == ledger.CodeStorageFailure && dberr.IsConflict(err):
		return &Error{status: http.StatusConflict, Code: CodeConflict, Message: "conflicting request, retry"}
	case code == ledger.CodeStorageFailure:
		return &Error{status: http.StatusInternalServerError, Code: code, Message: "storage failure"}
	case code == ledger.CodeAccountNotFound:
		return &Error{status: http.StatusNotFound, Code: code, Message: err.Error()}
	case code == service.CodeInvalidCredentials:
		return &Error{status: http.StatusUnauthorized, Code: code, Message: err.Error()}
	default:
		return &Error{status: http.StatusBadRequest, Code: code, Message: err.Error()}
	}
}

// Invalid reports a request that failed parsing before reaching the ledger.
func Invalid(code, message string) *Error {
	return &Error{status: http.StatusBadRequest, Code: code, Message: message}
}
