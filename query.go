// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// systemMethods are the node-metadata queries issued by QueryNodeInfo.
var systemMethods = []string{"system_name", "system_chain", "system_version"}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// rpcResponse carries either a result or an error. ID is a pointer so a
// response missing the field can be told apart from id 0.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// Result is the outcome of one request in a query batch. Exactly one of
// Value and Err is set once the request has resolved.
type Result struct {
	ID     uint64
	Method string
	Value  json.RawMessage
	Err    error
}

// QueryNodeInfo retrieves the node's name, chain and version.
func (s *Session) QueryNodeInfo(ctx context.Context) ([]Result, error) {
	return s.Query(ctx, systemMethods)
}

// Query sends one JSON-RPC request per method, with sequential ids
// starting at 1, then pulls frames off the stream until every id has
// resolved. Responses may arrive in any order; correlation is strictly
// by id. A response carrying an error payload resolves its request with
// a *RemoteError and does not abort the batch. A transport failure does:
// the error is returned alongside whatever resolved before it.
//
// Frames that match no outstanding request are ignored, up to the
// session's unmatched limit; past it the batch fails with a
// *DecodeError rather than waiting forever on a broken peer.
func (s *Session) Query(ctx context.Context, methods []string) ([]Result, error) {
	results := make([]Result, len(methods))
	pending := make(map[uint64]int, len(methods)) // id -> index into results

	for i, method := range methods {
		id := uint64(i + 1)
		results[i] = Result{ID: id, Method: method}
		pending[id] = i

		payload, err := json.Marshal(rpcRequest{
			JSONRPC: "2.0",
			Method:  method,
			Params:  []any{},
			ID:      id,
		})
		if err != nil {
			return results, fmt.Errorf("encode %s (id %d): %w", method, id, err)
		}
		s.log.Info("sending request",
			zap.Uint64("id", id),
			zap.String("method", method))
		if err := s.stream.Send(ctx, TextFrame, payload); err != nil {
			return results, fmt.Errorf("send %s (id %d): %w", method, id, err)
		}
	}

	unmatched := 0
	for len(pending) > 0 {
		frameType, data, err := s.stream.Receive(ctx)
		if err != nil {
			return results, fmt.Errorf("awaiting %d of %d responses: %w", len(pending), len(methods), err)
		}

		if frameType == TextFrame {
			var resp rpcResponse
			if jsonErr := json.Unmarshal(data, &resp); jsonErr == nil {
				if done := s.resolve(results, pending, &resp); done {
					continue
				}
			}
		}

		unmatched++
		s.log.Warn("ignoring frame matching no outstanding request",
			zap.Int("frame_type", frameType),
			zap.ByteString("frame", data))
		if unmatched > s.unmatchedLimit {
			return results, &DecodeError{
				Field:  "rpc response",
				Reason: fmt.Sprintf("%d frames matched no outstanding request", unmatched),
			}
		}
	}
	return results, nil
}

// resolve records resp against its pending request. It reports false
// when the response matches no outstanding id or carries neither a
// result nor an error.
func (s *Session) resolve(results []Result, pending map[uint64]int, resp *rpcResponse) bool {
	if resp.ID == nil {
		return false
	}
	idx, ok := pending[*resp.ID]
	if !ok {
		return false
	}

	switch {
	case resp.Error != nil:
		results[idx].Err = &RemoteError{
			ID:      *resp.ID,
			Method:  results[idx].Method,
			Payload: resp.Error,
		}
		s.log.Error("request failed",
			zap.Uint64("id", *resp.ID),
			zap.String("method", results[idx].Method),
			zap.ByteString("error", resp.Error))
	case resp.Result != nil:
		results[idx].Value = resp.Result
		s.log.Info("received response",
			zap.Uint64("id", *resp.ID),
			zap.String("method", results[idx].Method),
			zap.ByteString("result", resp.Result))
	default:
		return false
	}

	delete(pending, *resp.ID)
	return true
}
