package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrPlayerOutOfRange is returned when a player index does not exist.
	ErrPlayerOutOfRange = errors.New("player index out of range")
	// ErrRoundOutOfRange is returned when editing a round that was never played.
	ErrRoundOutOfRange = errors.New("round out of range")
	// ErrWrongStep is returned when an operation does not fit the current step.
	ErrWrongStep = errors.New("operation not allowed in current step")
	// ErrInvalidColor is returned for an unknown round colour.
	ErrInvalidColor = errors.New("invalid round color")
	// ErrInvalidValue is returned for negative bets or tricks.
	ErrInvalidValue = errors.New("value must not be negative")
)

// ValidationError describes why persisted state could not be turned into a
// Game. It carries enough context to log the failure without re-reading the
// raw document.
type ValidationError struct {
	Field    string
	Expected string
	Received string
	Value    any
	// Reason is set for structural failures where the type was fine but the
	// value was not.
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field '%s': %s (%s)", e.Field, e.Reason, preview(e.Value))
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid field '%s': expected %s but received %s (%s)",
		e.Field, e.Expected, e.Received, preview(e.Value))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func typeError(field, expected string, value any) *ValidationError {
	return &ValidationError{
		Field:    field,
		Expected: expected,
		Received: jsonType(value),
		Value:    value,
	}
}

func structuralError(field, reason string, value any) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Value: value}
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case absent:
		return "undefined"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func preview(v any) string {
	if _, ok := v.(absent); ok {
		return "undefined"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
