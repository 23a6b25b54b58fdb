package app

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrNoFiles         = errors.New("no files uploaded")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrConfirmRequired = errors.New("confirmation required")
)
