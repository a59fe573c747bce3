package posauth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the username/password pair. It is the only error that aborts the
	// login transaction.
	ErrInvalidCredentials = errors.New("posauth: invalid credentials")

	// ErrNotAuthenticated is returned by operations that require an
	// authenticated session when none exists.
	ErrNotAuthenticated = errors.New("posauth: not authenticated")

	// ErrBackendUnavailable wraps transport-level failures from the
	// backend, as opposed to an explicit rejection.
	ErrBackendUnavailable = errors.New("posauth: backend unavailable")

	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("posauth: engine closed")

	// ErrBuilderIncomplete is returned by Build when a required
	// collaborator is missing.
	ErrBuilderIncomplete = errors.New("posauth: builder incomplete")
)
