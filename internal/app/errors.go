package app

import "errors"

// Every error here is recoverable and meant to be shown to the user as is.
var (
	ErrUsernameTaken      = errors.New("username already exists, please choose a different username")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("not logged in")
	ErrNoSavedSession     = errors.New("no saved data found")
	ErrUnknownFormat      = errors.New("unknown report format")
)
