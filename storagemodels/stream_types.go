/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StreamResult represents a single item in a stream with metadata.
// A result with a non-nil Error is the last one sent.
type StreamResult[T any] struct {
	Item  T                               // The decoded record
	Raw   map[string]types.AttributeValue // Raw DynamoDB attributes
	Error error                           // Set on the terminal failure
	Meta  StreamMeta                      // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Page number (1-based)
	Timestamp  time.Time // When the page was retrieved
	// Cursor resumes a new stream right after this item.
	Cursor Cursor
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	ProgressHandler func(StreamProgress) // Optional callback after each page
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64                           // Total items sent
	PagesProcessed int                             // Total pages fetched
	LastKey        map[string]types.AttributeValue // Last evaluated key of the latest page
	StartTime      time.Time                       // When streaming started
	CurrentRate    float64                         // Items per second
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize: 100,
	}
}

// WithBufferSize sets the channel buffer size. Negative sizes are treated
// as zero (unbuffered).
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		if size < 0 {
			size = 0
		}
		opts.BufferSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}
