// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when the peer has cleanly closed the stream.
	ErrClosed = errors.New("nodeprobe: stream closed by peer")

	// ErrTimeout is returned when a send or receive exceeds the deadline
	// carried by its context.
	ErrTimeout = errors.New("nodeprobe: deadline exceeded")
)

// DecodeError reports a received frame whose bytes or JSON do not match
// the expected shape.
type DecodeError struct {
	Field  string // wire field being parsed, if known
	Offset int    // byte offset into the frame, for binary decodes
	Reason string
}

func (e *DecodeError) Error() string {
	msg := "nodeprobe: decode"
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Offset > 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	return msg + ": " + e.Reason
}

// RemoteError is a well-formed JSON-RPC response that carries an error
// payload. It resolves its request but does not abort sibling requests.
type RemoteError struct {
	ID      uint64
	Method  string
	Payload json.RawMessage
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("nodeprobe: %s (id %d): remote error: %s", e.Method, e.ID, e.Payload)
}

// ConfigError reports malformed caller-supplied configuration. It is
// raised before any network activity begins.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("nodeprobe: config %s: %s", e.Field, e.Reason)
}
