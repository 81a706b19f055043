// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"time"

	"go.uber.org/zap"
)

// DefaultHandshakeTimeout bounds the websocket upgrade performed by Dial.
const DefaultHandshakeTimeout = 10 * time.Second

// DefaultUnmatchedLimit caps the frames a query batch tolerates that
// match no outstanding request before the batch is declared failed.
const DefaultUnmatchedLimit = 16

// Session owns the duplex stream to a node for the lifetime of the
// probe. The handshake and the query batch run sequentially on the same
// stream; ownership replaces run-time locking, so a Session must not be
// used from multiple goroutines.
type Session struct {
	stream         Stream
	log            *zap.Logger
	unmatchedLimit int
}

type options struct {
	log              *zap.Logger
	handshakeTimeout time.Duration
	unmatchedLimit   int
}

// Option configures Dial and NewSession.
type Option func(*options)

// WithLogger sets the logger for session diagnostics. The default
// discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithHandshakeTimeout bounds the websocket upgrade. Only Dial uses it.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithUnmatchedLimit overrides DefaultUnmatchedLimit.
func WithUnmatchedLimit(n int) Option {
	return func(o *options) { o.unmatchedLimit = n }
}

func defaultOptions() *options {
	return &options{
		log:              zap.NewNop(),
		handshakeTimeout: DefaultHandshakeTimeout,
		unmatchedLimit:   DefaultUnmatchedLimit,
	}
}

// NewSession wraps an already-established stream. Most callers should
// use Dial; NewSession exists for custom transports and tests.
func NewSession(stream Stream, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Session{
		stream:         stream,
		log:            o.log,
		unmatchedLimit: o.unmatchedLimit,
	}
}

// Close tears down the underlying stream.
func (s *Session) Close() error {
	return s.stream.Close()
}
