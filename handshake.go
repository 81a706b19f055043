// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"context"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// handshakeVersion is the protocol version announced in every outbound
// handshake.
const handshakeVersion = 1

// defaultCapabilities are advertised when an Identity sets none.
var defaultCapabilities = []string{"full"}

// Identity describes the local node as announced in the handshake.
type Identity struct {
	Name         string
	Chain        string
	GenesisHash  [GenesisHashLen]byte
	Capabilities []string
}

// ParseGenesisHash decodes a hex-encoded genesis hash, failing with a
// *ConfigError unless the input decodes to exactly 32 bytes.
func ParseGenesisHash(s string) ([GenesisHashLen]byte, error) {
	var hash [GenesisHashLen]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return hash, &ConfigError{Field: "genesis_hash", Reason: fmt.Sprintf("invalid hex: %v", err)}
	}
	if len(b) != GenesisHashLen {
		return hash, &ConfigError{
			Field:  "genesis_hash",
			Reason: fmt.Sprintf("decoded to %d bytes, want %d", len(b), GenesisHashLen),
		}
	}
	copy(hash[:], b)
	return hash, nil
}

// Handshake performs the one-shot binary exchange that establishes
// protocol compatibility: it announces id to the peer and awaits exactly
// one binary reply. The decoded reply is returned for the caller to
// inspect; the library does not validate its fields. Handshake must
// complete before any queries are issued, and is never retried.
func (s *Session) Handshake(ctx context.Context, id Identity) (*HandshakeMessage, error) {
	caps := id.Capabilities
	if len(caps) == 0 {
		caps = defaultCapabilities
	}
	msg := &HandshakeMessage{
		Version:      handshakeVersion,
		Name:         id.Name,
		Chain:        id.Chain,
		GenesisHash:  id.GenesisHash,
		Capabilities: caps,
	}

	s.log.Info("sending handshake",
		zap.String("name", msg.Name),
		zap.String("chain", msg.Chain))

	if err := s.stream.Send(ctx, BinaryFrame, msg.Encode()); err != nil {
		return nil, fmt.Errorf("handshake send: %w", err)
	}

	frameType, data, err := s.stream.Receive(ctx)
	if err != nil {
		return nil, fmt.Errorf("handshake reply: %w", err)
	}
	if frameType != BinaryFrame {
		return nil, &DecodeError{
			Field:  "handshake reply",
			Reason: fmt.Sprintf("expected a binary frame, got frame type %d", frameType),
		}
	}
	reply, err := DecodeHandshake(data)
	if err != nil {
		return nil, fmt.Errorf("handshake reply: %w", err)
	}

	s.log.Info("received handshake response",
		zap.Uint32("peer_version", reply.Version),
		zap.String("peer_name", reply.Name),
		zap.String("peer_chain", reply.Chain),
		zap.Strings("peer_capabilities", reply.Capabilities))
	return reply, nil
}
