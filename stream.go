// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gorilla/websocket"
)

// Frame types carried by a Stream. They mirror the websocket message
// types: the handshake travels as binary frames, JSON-RPC as text.
const (
	BinaryFrame = websocket.BinaryMessage
	TextFrame   = websocket.TextMessage
)

// Stream is a message-framed duplex channel to the node. Implementations
// are not required to be safe for concurrent use: a Stream is owned by
// exactly one Session, which runs its phases sequentially. Context
// deadlines bound each send and receive; expiry surfaces as ErrTimeout.
type Stream interface {
	// Send writes one frame and blocks until the write completes.
	Send(ctx context.Context, frameType int, data []byte) error

	// Receive blocks until the next inbound frame arrives. It returns
	// ErrClosed once the peer has cleanly closed the stream.
	Receive(ctx context.Context) (frameType int, data []byte, err error)

	Close() error
}

// wsStream adapts a websocket connection to the Stream interface.
type wsStream struct {
	conn *websocket.Conn
}

// NewStream wraps an already-established websocket connection. Most
// callers should use Dial instead.
func NewStream(conn *websocket.Conn) Stream {
	return &wsStream{conn: conn}
}

func (s *wsStream) Send(ctx context.Context, frameType int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return mapStreamErr(err, "write")
	}
	deadline, _ := ctx.Deadline() // zero deadline disables the timeout
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("nodeprobe: set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(frameType, data); err != nil {
		return mapStreamErr(err, "write")
	}
	return nil
}

func (s *wsStream) Receive(ctx context.Context) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, mapStreamErr(err, "read")
	}
	deadline, _ := ctx.Deadline()
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return 0, nil, fmt.Errorf("nodeprobe: set read deadline: %w", err)
	}
	frameType, data, err := s.conn.ReadMessage()
	if err != nil {
		return 0, nil, mapStreamErr(err, "read")
	}
	return frameType, data, nil
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// mapStreamErr classifies websocket failures into the package's error
// taxonomy: clean peer shutdown, deadline expiry, or transport failure.
func mapStreamErr(err error, op string) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return ErrClosed
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("nodeprobe: %s: %w", op, err)
}
