package workspace

import "errors"

var (
	// ErrNotInitialized indicates the data directory has no seed file.
	ErrNotInitialized = errors.New("workspace: not initialized (run 'squadctl keys init')")

	// ErrAlreadyInitialized indicates a seed file already exists.
	ErrAlreadyInitialized = errors.New("workspace: already initialized")

	// ErrPasswordRequired indicates an empty password.
	ErrPasswordRequired = errors.New("workspace: password is required")

	// ErrLocked indicates another process holds the workspace lock.
	ErrLocked = errors.New("workspace: locked by another process")
)
