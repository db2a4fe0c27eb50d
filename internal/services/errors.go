package services

import "errors"

// Custom errors shared by the services.
var (
	ErrValidation           = errors.New("validation failed")
	ErrConfirmationRequired = errors.New("explicit confirmation required")
)
