// Package gameerr carries the expected, typed failures of the game engines.
//
// Engines return *Error for conditions a player can cause (not enough gold, collecting too
// early, ...). Anything else reaching the HTTP layer is an infrastructure fault.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind is the coarse failure category used for status mapping.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindInvalidParameter  Kind = "INVALID_PARAMETER"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
)

// Reason is the machine-readable failure code returned to clients.
type Reason string

const (
	ReasonNotFound              Reason = "NOT_FOUND"
	ReasonAlreadyExists         Reason = "ALREADY_EXISTS"
	ReasonAlreadyActive         Reason = "ALREADY_ACTIVE"
	ReasonNoActiveProduction    Reason = "NO_ACTIVE_PRODUCTION"
	ReasonNotReady              Reason = "NOT_READY"
	ReasonAlreadyReady          Reason = "ALREADY_READY"
	ReasonNoSession             Reason = "NO_SESSION"
	ReasonInsufficientFunds     Reason = "INSUFFICIENT_FUNDS"
	ReasonAlreadyAtOrAboveLevel Reason = "ALREADY_AT_OR_ABOVE_LEVEL"
	ReasonInvalidLevel          Reason = "INVALID_LEVEL"
	ReasonInvalidParameter      Reason = "INVALID_PARAMETER"
	ReasonNotEligible           Reason = "NOT_ELIGIBLE"
	ReasonCreatureBusy          Reason = "CREATURE_BUSY"
)

// Error is an expected game failure with structured details for the client.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Reason so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Reason == t.Reason
	}
	return false
}

// With returns the error with an extra detail attached.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, reason Reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// As extracts a game failure from err.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Sentinels for errors.Is.
var (
	ErrNotFound              = &Error{Reason: ReasonNotFound}
	ErrAlreadyExists         = &Error{Reason: ReasonAlreadyExists}
	ErrAlreadyActive         = &Error{Reason: ReasonAlreadyActive}
	ErrNoActiveProduction    = &Error{Reason: ReasonNoActiveProduction}
	ErrNotReady              = &Error{Reason: ReasonNotReady}
	ErrAlreadyReady          = &Error{Reason: ReasonAlreadyReady}
	ErrNoSession             = &Error{Reason: ReasonNoSession}
	ErrInsufficientFunds     = &Error{Reason: ReasonInsufficientFunds}
	ErrAlreadyAtOrAboveLevel = &Error{Reason: ReasonAlreadyAtOrAboveLevel}
	ErrInvalidLevel          = &Error{Reason: ReasonInvalidLevel}
	ErrInvalidParameter      = &Error{Reason: ReasonInvalidParameter}
	ErrNotEligible           = &Error{Reason: ReasonNotEligible}
	ErrCreatureBusy          = &Error{Reason: ReasonCreatureBusy}
)

func NotFound(what string) *Error {
	return New(KindNotFound, ReasonNotFound, fmt.Sprintf("%s not found", what))
}

func AlreadyExists(what string) *Error {
	return New(KindAlreadyExists, ReasonAlreadyExists, fmt.Sprintf("%s already exists", what))
}

func AlreadyActive() *Error {
	return New(KindInvalidState, ReasonAlreadyActive, "production is already running")
}

func NoActiveProduction() *Error {
	return New(KindInvalidState, ReasonNoActiveProduction, "no active production to collect")
}

// NotReady reports whole remaining minutes only.
func NotReady(remainingMinutes int64) *Error {
	return New(KindInvalidState, ReasonNotReady,
		fmt.Sprintf("not ready yet, %d minute(s) remaining", remainingMinutes)).
		With("remaining_minutes", remainingMinutes)
}

func AlreadyReady() *Error {
	return New(KindInvalidState, ReasonAlreadyReady, "upgrade is already ready to collect")
}

func NoSession() *Error {
	return New(KindInvalidState, ReasonNoSession, "no upgrade in progress for these creatures")
}

func InsufficientFunds(currency string, required, available int64) *Error {
	return New(KindInsufficientFunds, ReasonInsufficientFunds,
		fmt.Sprintf("not enough %s: required %d, available %d", currency, required, available)).
		With("currency", currency).
		With("required", required).
		With("available", available)
}

func AlreadyAtOrAboveLevel(current, target int) *Error {
	return New(KindInvalidParameter, ReasonAlreadyAtOrAboveLevel,
		fmt.Sprintf("building is already at level %d, cannot upgrade to %d", current, target)).
		With("current_level", current).
		With("target_level", target)
}

func InvalidLevel(level int) *Error {
	return New(KindNotFound, ReasonInvalidLevel, fmt.Sprintf("level %d does not exist in the catalog", level)).
		With("level", level)
}

func InvalidParameter(message string) *Error {
	return New(KindInvalidParameter, ReasonInvalidParameter, message)
}

func NotEligible(message string) *Error {
	return New(KindInvalidParameter, ReasonNotEligible, message)
}

func CreatureBusy(creatureID string) *Error {
	return New(KindInvalidState, ReasonCreatureBusy,
		fmt.Sprintf("creature %s is already part of another upgrade", creatureID)).
		With("creature_id", creatureID)
}
