package tools

import "errors"

// Tool registry errors.
var (
	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrMissingRequiredArg is returned when a required argument is missing.
	ErrMissingRequiredArg = errors.New("missing required argument")

	// ErrInvalidArgType is returned when an argument has the wrong type.
	ErrInvalidArgType = errors.New("invalid argument type")
)
