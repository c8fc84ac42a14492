package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")

	// ErrGenerationUnavailable marks a failed call to the text-generation
	// collaborator. The responder recovers from it locally; it must never
	// reach the visitor.
	ErrGenerationUnavailable = errors.New("text generation unavailable")
)
