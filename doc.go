// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nodeprobe establishes a session with a blockchain node over a
// websocket stream, performs a one-shot binary handshake to verify
// protocol and chain compatibility, and issues JSON-RPC queries for node
// metadata.
//
// # Usage
//
//	hash, err := nodeprobe.ParseGenesisHash(hexHash)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := nodeprobe.Dial(ctx, "ws://127.0.0.1:9944")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	peer, err := sess.Handshake(ctx, nodeprobe.Identity{
//	    Name:        "my-node",
//	    Chain:       "my-chain",
//	    GenesisHash: hash,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := sess.QueryNodeInfo(ctx)
//
// # Architecture
//
// The package separates concerns:
//
//   - codec.go: binary wire codec for the handshake message
//   - stream.go: Stream abstraction over the websocket connection
//   - dial.go: Dial factory and connection setup
//   - session.go: Session owning the stream, plus options
//   - handshake.go: the one-shot handshake exchange
//   - query.go: the JSON-RPC batch engine with id correlation
//
// A Session owns its stream exclusively and runs the handshake phase and
// the query phase sequentially, so no locking is involved; a Session
// must not be shared between goroutines. Deadlines are carried by the
// context passed to each operation and surface as ErrTimeout.
//
// Errors fall into four kinds: transport failures (including ErrClosed
// and ErrTimeout) abort the current operation; *DecodeError reports a
// frame that does not match the expected shape; *RemoteError records a
// node-reported failure for a single request without aborting its
// siblings; *ConfigError rejects malformed configuration before any
// network activity.
package nodeprobe
