// Package errs holds the error catalog shared by the engine, the stores and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
)

var (
	// Request errors: the caller asked for something invalid.
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyDispatched  = errors.New("campaign already dispatched")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrContactParse       = errors.New("contact upload could not be parsed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrDuplicate          = errors.New("already exists")

	// ErrLeaseLost stops a dispatch pass whose campaign was reset or aborted
	// while it was running.
	ErrLeaseLost = errors.New("dispatch lease lost")

	// Dependency errors: safe to retry once the dependency recovers.
	ErrChannelFailure   = errors.New("delivery channel failure")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrQueueUnavailable = errors.New("dispatch queue unavailable")
)

// StoreError wraps a persistence failure. It matches ErrStoreUnavailable
// under errors.Is while keeping the driver error reachable through Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Store wraps err as a StoreError. nil stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// ParseError describes a malformed contact upload.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := ErrContactParse.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d", msg, e.Line)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrContactParse }

// Retryable reports whether err comes from a dependency being down rather
// than from an invalid request.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrChannelFailure) ||
		errors.Is(err, ErrQueueUnavailable)
}
