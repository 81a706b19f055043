// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"context"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// Dial connects to a node's websocket endpoint (ws:// or wss://) and
// wraps the connection in a Session. The returned Session has not yet
// performed the protocol handshake.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: o.handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("nodeprobe: dial %s: %w", addr, err)
	}
	if resp != nil && resp.Body != nil {
		// Drain the upgrade response so the connection is left clean.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	return &Session{
		stream:         NewStream(conn),
		log:            o.log,
		unmatchedLimit: o.unmatchedLimit,
	}, nil
}
