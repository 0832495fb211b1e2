package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

/*
RpcError is the error object returned to JSON-RPC callers. The agent
answers with this object bare, without the {jsonrpc, id, error} wrapper.
*/
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	status int
	origin *RpcError
}

/*
Error implements the error interface for RpcError.
*/
func (e *RpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Is matches copies made with WithMessagef against their sentinel, and
// decoded errors by code and message.
func (e *RpcError) Is(target error) bool {
	other, ok := target.(*RpcError)

	if !ok || other == nil {
		return false
	}

	if e.origin != nil && e.origin == other {
		return true
	}

	return e.Code == other.Code && e.Message == other.Message
}

// Convenience errors (JSON‑RPC reserved codes -32700 .. -32600).
var (
	ErrParseError     = &RpcError{Code: -32700, Message: "Parse error", status: http.StatusBadRequest}
	ErrInvalidRequest = &RpcError{Code: -32600, Message: "Invalid Request", status: http.StatusBadRequest}
	ErrMethodNotFound = &RpcError{Code: -32601, Message: "Method not found", status: http.StatusNotFound}
	ErrInvalidParams  = &RpcError{Code: -32602, Message: "Invalid params", status: http.StatusBadRequest}
	ErrInternal       = &RpcError{Code: -32603, Message: "Internal error", status: http.StatusInternalServerError}

	// Application errors share the internal error code and differ by message
	// and transport status.
	ErrTaskNotFound         = &RpcError{Code: -32603, Message: "Task not found", status: http.StatusNotFound}
	ErrTaskAlreadyCompleted = &RpcError{Code: -32603, Message: "Task already completed", status: http.StatusBadRequest}
	ErrTaskStore            = &RpcError{Code: -32603, Message: "Task store failure", status: http.StatusInternalServerError}
)

// WithMessagef creates a *copy* of an RpcError with a formatted message.
// It does not modify the original error variable.
func (e *RpcError) WithMessagef(format string, args ...any) *RpcError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)

	if newErr.origin == nil {
		newErr.origin = e
	}

	return &newErr
}

// WithData returns a copy carrying data in the data member.
func (e *RpcError) WithData(data any) *RpcError {
	newErr := *e
	newErr.Data = data

	if newErr.origin == nil {
		newErr.origin = e
	}

	return &newErr
}

// HTTPStatus is the transport status the error is answered with.
func (e *RpcError) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}

	return e.status
}

/*
HTTPStatus picks the transport status for any error returned by the
task manager. Errors that are not RPC errors are internal failures.
*/
func HTTPStatus(err error) int {
	var rpcErr *RpcError

	if stderrors.As(err, &rpcErr) {
		return rpcErr.HTTPStatus()
	}

	return http.StatusInternalServerError
}
