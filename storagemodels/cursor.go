/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
)

// Cursor is an opaque continuation token: the base64url form of the JSON
// rendering of an exclusive start key. The zero Cursor means "no more
// pages" when returned and "from the start" when supplied.
type Cursor string

// NewCursor encodes key. An empty key yields the zero Cursor.
func NewCursor(key map[string]types.AttributeValue) (Cursor, error) {
	if len(key) == 0 {
		return "", nil
	}
	data, err := codec.MarshalItemJSON(key)
	if err != nil {
		return "", fmt.Errorf("cursor: %w", err)
	}
	return Cursor(base64.RawURLEncoding.EncodeToString(data)), nil
}

// ParseCursor validates a token received from a caller.
func ParseCursor(token string) (Cursor, error) {
	c := Cursor(token)
	if _, err := c.Key(); err != nil {
		return "", err
	}
	return c, nil
}

// Key decodes the start key carried by c. The zero Cursor decodes to nil.
func (c Cursor) Key() (map[string]types.AttributeValue, error) {
	if c == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	key, err := codec.UnmarshalItemJSON(data)
	if err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("cursor: empty key")
	}
	return key, nil
}

// IsZero reports whether c is the zero Cursor.
func (c Cursor) IsZero() bool { return c == "" }

func (c Cursor) String() string { return string(c) }
