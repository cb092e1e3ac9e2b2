package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing a component boundary.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindCollaborator ErrorKind = "collaborator"
	KindParse        ErrorKind = "parse"
	KindAssetLoad    ErrorKind = "asset_load"
)

// Error carries a kind, a message and, for collaborator failures, the raw
// provider payload used for diagnosis.
type Error struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ValidationError(message string) *Error {
	return NewError(KindValidation, message, nil)
}

// CollaboratorError wraps a provider failure together with its payload.
func CollaboratorError(message string, details any, err error) *Error {
	e := NewError(KindCollaborator, message, err)
	e.Details = details
	return e
}

func ParseError(message string, err error) *Error {
	return NewError(KindParse, message, err)
}

func AssetLoadError(message string, err error) *Error {
	return NewError(KindAssetLoad, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
