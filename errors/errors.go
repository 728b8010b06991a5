/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an item is required but absent
	ErrNotFound = errors.New("item not found")

	// ErrAlreadyExists is returned when a create-only write finds an existing item
	ErrAlreadyExists = errors.New("item already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrTransactionCancelled is returned when the store cancels a transaction
	ErrTransactionCancelled = errors.New("transaction cancelled")

	// ErrSchema is returned for invalid registration or provisioning input
	ErrSchema = errors.New("invalid schema")

	// ErrNotRegistered is returned when a record type has no registered schema
	ErrNotRegistered = errors.New("record type not registered")

	// ErrKey is returned when key fields are missing or mismatched
	ErrKey = errors.New("invalid key")

	// ErrEncode is returned when a value cannot be represented in the wire format
	ErrEncode = errors.New("encode failed")

	// ErrDecode is returned when a wire value cannot be reconstructed into a record
	ErrDecode = errors.New("decode failed")

	// ErrRemote is returned when the item store fails
	ErrRemote = errors.New("remote store failure")

	// ErrTableNotFound is returned when the addressed table does not exist
	ErrTableNotFound = errors.New("table not found")

	// ErrClosed is returned when a closed client is asked for an item store
	ErrClosed = errors.New("client closed")
)

// NotFoundError represents an error when an item is not found
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s item with key %s not found", e.Table, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an item already exists
type AlreadyExistsError struct {
	Table string
	Key   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s item with key %s already exists", e.Table, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists || target == ErrConditionFailed
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
	Cause     error
}

func (e *ConditionFailedError) Error() string {
	if e.Condition == "" {
		return fmt.Sprintf("condition check failed for %s operation", e.Operation)
	}
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

func (e *ConditionFailedError) Unwrap() error { return e.Cause }

// TransactionCancelledError carries the per-operation cancellation reasons
// reported by the store.
type TransactionCancelledError struct {
	Reasons []string
	Cause   error
}

func (e *TransactionCancelledError) Error() string {
	return fmt.Sprintf("transaction cancelled: %v", e.Reasons)
}

func (e *TransactionCancelledError) Is(target error) bool {
	return target == ErrTransactionCancelled
}

func (e *TransactionCancelledError) Unwrap() error { return e.Cause }

// SchemaError represents bad registration or provisioning input
type SchemaError struct {
	Table   string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Table != "" && e.Field != "":
		return fmt.Sprintf("schema %s: field %q: %s", e.Table, e.Field, e.Message)
	case e.Table != "":
		return fmt.Sprintf("schema %s: %s", e.Table, e.Message)
	case e.Field != "":
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
	}
	return "schema: " + e.Message
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ConfigError is returned when a record type is used before registration
type ConfigError struct {
	Type string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no table schema registered for type %s", e.Type)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrNotRegistered
}

// KeyError represents missing or mismatched key fields
type KeyError struct {
	Table   string
	Field   string
	Message string
}

func (e *KeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("key %s.%s: %s", e.Table, e.Field, e.Message)
	}
	return fmt.Sprintf("key %s: %s", e.Table, e.Message)
}

func (e *KeyError) Is(target error) bool {
	return target == ErrKey
}

// EncodeError represents a value that cannot be written in the wire format
type EncodeError struct {
	Field   string
	Message string
	Cause   error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("encode %s: %s", e.Field, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EncodeError) Is(target error) bool {
	return target == ErrEncode
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// DecodeError represents a wire value that cannot be reconstructed. Variant
// is the wire tag that was found (S, N, B, BOOL, NULL, L, M, SS, NS, BS).
type DecodeError struct {
	Field    string
	Variant  string
	Expected string
	Message  string
	Cause    error
}

func (e *DecodeError) Error() string {
	var msg string
	switch {
	case e.Message != "":
		msg = fmt.Sprintf("decode %s: %s", e.Field, e.Message)
	case e.Expected != "":
		msg = fmt.Sprintf("decode %s: expected %s, got %s", e.Field, e.Expected, e.Variant)
	default:
		msg = fmt.Sprintf("decode %s: unexpected %s", e.Field, e.Variant)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// TableNotFoundError is reported by an item store for a missing table
type TableNotFoundError struct {
	Table string
	Cause error
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s not found", e.Table)
}

func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}

func (e *TableNotFoundError) Unwrap() error { return e.Cause }

// RemoteError wraps an item store failure. Cursor holds the continuation
// token that was in flight, empty for the first page or single-item calls.
type RemoteError struct {
	Operation string
	Table     string
	Cursor    string
	Cause     error
}

func (e *RemoteError) Error() string {
	if e.Cursor != "" {
		return fmt.Sprintf("%s %s (cursor %s): %v", e.Operation, e.Table, e.Cursor, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Table, e.Cause)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

func (e *RemoteError) Unwrap() error { return e.Cause }

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(table, key string) error {
	return &NotFoundError{Table: table, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(table, key string) error {
	return &AlreadyExistsError{Table: table, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string, cause error) error {
	return &ConditionFailedError{Operation: operation, Condition: condition, Cause: cause}
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(table, field, message string) error {
	return &SchemaError{Table: table, Field: field, Message: message}
}

// NewKeyError creates a new KeyError
func NewKeyError(table, field, message string) error {
	return &KeyError{Table: table, Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsTransactionCancelled checks if an error is a transaction cancellation
func IsTransactionCancelled(err error) bool {
	return errors.Is(err, ErrTransactionCancelled)
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsNotRegistered checks if an error reports an unregistered record type
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsKeyError checks if an error is a key error
func IsKeyError(err error) bool {
	return errors.Is(err, ErrKey)
}

// IsEncodeError checks if an error is an encode error
func IsEncodeError(err error) bool {
	return errors.Is(err, ErrEncode)
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsTableNotFound checks if an error reports a missing table
func IsTableNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}

// IsClosed checks if an error reports a closed client
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsRemote checks if an error came from the item store
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}
