package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrInsufficientText  = errors.New("insufficient text extracted from PDF")
	ErrEmptyQuery        = errors.New("query cannot be empty")
)
