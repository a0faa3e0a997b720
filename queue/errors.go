package queue

import (
	"errors"
	"fmt"
	"strings"
)

// mappingErrorType marks sink rejections caused by a field value not
// matching the indexed field's expected shape. These are the only per-item
// failures eligible for replay.
const mappingErrorType = "mapper_parsing_exception"

// StructuredError is a sink rejection whose error payload carried a parsed
// type and reason.
type StructuredError struct {
	Type   string
	Reason string
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// OpaqueError is a sink rejection whose error payload was a bare string.
// Opaque errors are never replayed.
type OpaqueError string

func (e OpaqueError) Error() string { return string(e) }

// ItemError describes one per-document rejection from a bulk flush.
type ItemError struct {
	Identity string
	Op       string
	Status   int
	Err      error
}

// Replayable reports whether the rejection is a structural mapping error
// eligible for the one sanctioned replay.
func Replayable(err error) bool {
	var structured *StructuredError
	if errors.As(err, &structured) {
		return strings.Contains(structured.Type, mappingErrorType)
	}
	return false
}
