package domain

import (
	"errors"
	"fmt"
)

// ErrConfirmationRequired is returned when a delete is attempted without a confirmed deletion request.
var ErrConfirmationRequired = errors.New("deletion requires confirmation")

type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Resource != "" && e.ID != "":
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	case e.Resource != "":
		return fmt.Sprintf("%s not found", e.Resource)
	default:
		return "not found"
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type ImportReason string

const (
	ImportNotFound          ImportReason = "not_found"
	ImportNetworkError      ImportReason = "network_error"
	ImportInvalidReference  ImportReason = "invalid_reference"
	ImportNoCandidatesFound ImportReason = "no_candidates_found"
	ImportInvalidDocument   ImportReason = "invalid_document"
)

type ImportError struct {
	Reason ImportReason
	Msg    string
	Err    error
}

func (e ImportError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("import failed: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("import failed: %s", msg)
}

func (e ImportError) Unwrap() error { return e.Err }

type AttachReason string

const (
	AttachUnsupportedType AttachReason = "unsupported_type"
	AttachTooLarge        AttachReason = "too_large"
	AttachStorage         AttachReason = "storage"
)

type AttachError struct {
	Reason AttachReason
	Msg    string
	Err    error
}

func (e AttachError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("attach document: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("attach document: %s", msg)
}

func (e AttachError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// ImportReasonOf returns the reason of a wrapped ImportError, or "" when err is not one.
func ImportReasonOf(err error) ImportReason {
	var target ImportError
	if errors.As(err, &target) {
		return target.Reason
	}
	return ""
}

// AttachReasonOf returns the reason of a wrapped AttachError, or "" when err is not one.
func AttachReasonOf(err error) AttachReason {
	var target AttachError
	if errors.As(err, &target) {
		return target.Reason
	}
	return ""
}

func IsImport(err error) bool {
	return ImportReasonOf(err) != ""
}

func IsAttach(err error) bool {
	return AttachReasonOf(err) != ""
}
