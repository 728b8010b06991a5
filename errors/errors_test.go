/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("users", "id=123")

	expected := "users item with key id=123 not found"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}

	if IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return false for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("users", "id=123")

	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}

	// create-only puts are conditional writes as well
	if !IsConditionFailed(err) {
		t.Error("AlreadyExistsError should match ErrConditionFailed")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "region",
			message:  "is required",
			expected: `validation failed for field "region": is required`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "limit must be positive",
			expected: "validation failed: limit must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestConditionFailedError(t *testing.T) {
	cause := errors.New("ConditionalCheckFailedException")
	err := NewConditionFailedError("put", "attribute_not_exists (#0)", cause)

	expected := "condition check failed for put operation: attribute_not_exists (#0)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsConditionFailed(err) {
		t.Error("IsConditionFailed should return true for ConditionFailedError")
	}

	if !errors.Is(err, cause) {
		t.Error("ConditionFailedError should unwrap to its cause")
	}
}

func TestSchemaError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{NewSchemaError("users", "id", "unsupported type chan int"), `schema users: field "id": unsupported type chan int`},
		{NewSchemaError("users", "", "table already registered"), "schema users: table already registered"},
		{NewSchemaError("", "", "hash key is required"), "schema: hash key is required"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.expected {
			t.Errorf("Expected error message %q, got %q", tt.expected, tt.err.Error())
		}
		if !IsSchemaError(tt.err) {
			t.Errorf("IsSchemaError should return true for %v", tt.err)
		}
	}
}

func TestKeyError(t *testing.T) {
	err := NewKeyError("orders", "sk", "range key is required")

	expected := "key orders.sk: range key is required"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsKeyError(err) {
		t.Error("IsKeyError should return true for KeyError")
	}
}

func TestDecodeError(t *testing.T) {
	err := &DecodeError{Field: "Age", Variant: "S", Expected: "N"}

	expected := "decode Age: expected N, got S"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsDecodeError(err) {
		t.Error("IsDecodeError should return true for DecodeError")
	}

	if IsEncodeError(err) {
		t.Error("IsEncodeError should return false for DecodeError")
	}
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("throttled")
	err := &RemoteError{Operation: "query", Table: "orders", Cursor: "eyJwayI6eyJTIjoiYSJ9fQ", Cause: cause}

	expected := "query orders (cursor eyJwayI6eyJTIjoiYSJ9fQ): throttled"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsRemote(err) {
		t.Error("IsRemote should return true for RemoteError")
	}

	var remote *RemoteError
	if !errors.As(fmt.Errorf("page 3: %w", err), &remote) || remote.Cursor == "" {
		t.Error("wrapped RemoteError should expose its cursor")
	}
}

func TestTableNotFoundInsideRemote(t *testing.T) {
	err := &RemoteError{Operation: "get", Table: "users", Cause: &TableNotFoundError{Table: "users"}}

	if !IsRemote(err) {
		t.Error("IsRemote should return true")
	}
	if !IsTableNotFound(err) {
		t.Error("IsTableNotFound should see through RemoteError")
	}
}

func TestClosed(t *testing.T) {
	err := fmt.Errorf("acquire orders: %w", ErrClosed)

	if !IsClosed(err) {
		t.Error("IsClosed should see through wrapping")
	}
	if IsRemote(err) {
		t.Error("a closed client is not a remote failure")
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("users", "id=123")
	wrapped := fmt.Errorf("require failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrConditionFailed,
		ErrTransactionCancelled,
		ErrSchema,
		ErrNotRegistered,
		ErrKey,
		ErrEncode,
		ErrDecode,
		ErrRemote,
		ErrTableNotFound,
		ErrClosed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
