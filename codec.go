// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"encoding/binary"
	"fmt"
)

// Handshake wire layout, all length prefixes little-endian u32:
//
//	+-----------+----------------+-----------------+
//	|  Version  |  NameL | Name  |  ChainL | Chain |
//	+-----------+--------+-------+---------+-------+
//	|            GenesisHash (32 raw bytes)        |
//	+-------+---------------------------------------+
//	| CapsN |  CapL | Cap  ...  (repeated CapsN)    |
//	+-------+---------------------------------------+
//
// The same layout is used to encode the outbound handshake and decode
// the inbound reply.

// GenesisHashLen is the exact size of a chain's genesis hash.
const GenesisHashLen = 32

// maxElementLen bounds any single length prefix before allocation.
const maxElementLen = 1 << 20 // 1MB

// HandshakeMessage represents a node's protocol identity.
type HandshakeMessage struct {
	Version      uint32
	Name         string
	Chain        string
	GenesisHash  [GenesisHashLen]byte
	Capabilities []string
}

// Encode produces the deterministic binary representation of m. Every
// valid in-memory message encodes without error.
func (m *HandshakeMessage) Encode() []byte {
	size := 4 + 4 + len(m.Name) + 4 + len(m.Chain) + GenesisHashLen + 4
	for _, c := range m.Capabilities {
		size += 4 + len(c)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, m.Version)
	buf = appendString(buf, m.Name)
	buf = appendString(buf, m.Chain)
	buf = append(buf, m.GenesisHash[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Capabilities)))
	for _, c := range m.Capabilities {
		buf = appendString(buf, c)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// DecodeHandshake parses the binary representation produced by Encode.
// It fails with a *DecodeError when the buffer is truncated, a length
// prefix exceeds the remaining buffer, or bytes trail the message.
func DecodeHandshake(data []byte) (*HandshakeMessage, error) {
	r := &byteReader{data: data}
	m := &HandshakeMessage{}

	var err error
	if m.Version, err = r.u32("version"); err != nil {
		return nil, err
	}
	if m.Name, err = r.str("name"); err != nil {
		return nil, err
	}
	if m.Chain, err = r.str("chain"); err != nil {
		return nil, err
	}
	hash, err := r.take("genesis_hash", GenesisHashLen)
	if err != nil {
		return nil, err
	}
	copy(m.GenesisHash[:], hash)

	count, err := r.u32("capabilities")
	if err != nil {
		return nil, err
	}
	if count > maxElementLen {
		return nil, &DecodeError{
			Field:  "capabilities",
			Offset: r.off,
			Reason: fmt.Sprintf("implausible element count %d", count),
		}
	}
	for i := uint32(0); i < count; i++ {
		c, err := r.str("capabilities")
		if err != nil {
			return nil, err
		}
		m.Capabilities = append(m.Capabilities, c)
	}

	if r.off != len(data) {
		return nil, &DecodeError{
			Offset: r.off,
			Reason: fmt.Sprintf("%d trailing bytes", len(data)-r.off),
		}
	}
	return m, nil
}

// byteReader walks a handshake frame, tracking the offset so decode
// failures can name the exact position.
type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) take(field string, n int) ([]byte, error) {
	if len(r.data)-r.off < n {
		return nil, &DecodeError{
			Field:  field,
			Offset: r.off,
			Reason: fmt.Sprintf("need %d bytes, %d remain", n, len(r.data)-r.off),
		}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) u32(field string) (uint32, error) {
	b, err := r.take(field, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) str(field string) (string, error) {
	n, err := r.u32(field)
	if err != nil {
		return "", err
	}
	if n > maxElementLen {
		return "", &DecodeError{
			Field:  field,
			Offset: r.off,
			Reason: fmt.Sprintf("implausible length prefix %d", n),
		}
	}
	b, err := r.take(field, int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
