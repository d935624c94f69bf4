package parser

import (
	"errors"
	"fmt"
)

var (
	ErrUnmappedKind          = errors.New("unmapped field type")
	ErrUnknownCollectionKind = errors.New("unknown collection type")
	ErrDuplicateCollection   = errors.New("duplicate collection name")
	ErrNameCollision         = errors.New("generated name collision")
)

// GenerationError aborts a whole generation run. Collection and Field locate
// the offending descriptor when known.
type GenerationError struct {
	Collection string
	Field      string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Collection != "" && e.Field != "":
		return fmt.Sprintf("generate %s.%s: %v", e.Collection, e.Field, e.Err)
	case e.Collection != "":
		return fmt.Sprintf("generate %s: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("generate: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
