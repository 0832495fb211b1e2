package errors

import "fmt"

type ErrMissingProvider struct{}

func (err ErrMissingProvider) Error() string {
	return "task manager requires a completion provider"
}

type ErrMissingTaskStore struct{}

func (err ErrMissingTaskStore) Error() string {
	return "task manager requires a task store"
}

type ErrMissingTaskManager struct{}

func (err ErrMissingTaskManager) Error() string {
	return "server requires a task manager"
}

/*
CompletionError is returned when the completion service, or a tool it
called, fails. It is never sent to RPC callers as an error object; the
task it belonged to is marked failed instead.
*/
type CompletionError struct {
	Provider string
	Cause    error
}

func NewCompletionError(provider string, cause error) *CompletionError {
	return &CompletionError{Provider: provider, Cause: cause}
}

func (err *CompletionError) Error() string {
	return fmt.Sprintf("completion via %s failed: %v", err.Provider, err.Cause)
}

func (err *CompletionError) Unwrap() error {
	return err.Cause
}

/*
StoreError wraps a failure of the task store backend.
*/
type StoreError struct {
	Op    string
	ID    string
	Cause error
}

func (err *StoreError) Error() string {
	return fmt.Sprintf("task store %s %q: %v", err.Op, err.ID, err.Cause)
}

func (err *StoreError) Unwrap() error {
	return err.Cause
}
