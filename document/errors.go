package document

import "errors"

var (
	// ErrInvalidEncoding is returned when object content is not valid UTF-8.
	ErrInvalidEncoding = errors.New("content is not valid UTF-8")

	// ErrMalformedNotebook is returned when notebook JSON cannot be parsed.
	ErrMalformedNotebook = errors.New("malformed notebook")
)
