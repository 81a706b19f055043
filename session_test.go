// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nodeprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeNode upgrades the connection, echoes the handshake frame back, then
// collects the whole query batch before answering it in reverse order.
func fakeNode(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	replies := map[string]string{
		"system_name":    "MyNode",
		"system_chain":   "MyChain",
		"system_version": "1.0.0",
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read handshake: %v", err)
			return
		}
		if mt != websocket.BinaryMessage {
			t.Errorf("handshake frame type = %d, want binary", mt)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			t.Errorf("echo handshake: %v", err)
			return
		}

		var reqs []rpcRequest
		for len(reqs) < len(replies) {
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Errorf("read request: %v", err)
				return
			}
			var req rpcRequest
			if err := json.Unmarshal(data, &req); err != nil {
				t.Errorf("unmarshal request: %v", err)
				return
			}
			reqs = append(reqs, req)
		}

		// Answer out of send order.
		for i := len(reqs) - 1; i >= 0; i-- {
			resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%q}`,
				reqs[i].ID, replies[reqs[i].Method])
			if err := conn.WriteMessage(websocket.TextMessage, []byte(resp)); err != nil {
				t.Errorf("write response: %v", err)
				return
			}
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSessionEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := httptest.NewServer(fakeNode(t))
	defer srv.Close()

	sess, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	hash, err := ParseGenesisHash("5972ecbfbc42507482dbcb0a2892bcd70161fd9acdfdf7e6455ab39bac3dfb83")
	if err != nil {
		t.Fatalf("ParseGenesisHash: %v", err)
	}

	reply, err := sess.Handshake(ctx, Identity{
		Name:        "my-node",
		Chain:       "my-chain",
		GenesisHash: hash,
	})
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	want := &HandshakeMessage{
		Version:      1,
		Name:         "my-node",
		Chain:        "my-chain",
		GenesisHash:  hash,
		Capabilities: []string{"full"},
	}
	if !reflect.DeepEqual(reply, want) {
		t.Errorf("handshake reply = %+v, want %+v", reply, want)
	}

	results, err := sess.QueryNodeInfo(ctx)
	if err != nil {
		t.Fatalf("QueryNodeInfo: %v", err)
	}
	wantResults := map[string]string{
		"system_name":    `"MyNode"`,
		"system_chain":   `"MyChain"`,
		"system_version": `"1.0.0"`,
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("%s (id %d): %v", res.Method, res.ID, res.Err)
			continue
		}
		if got := string(res.Value); got != wantResults[res.Method] {
			t.Errorf("%s = %s, want %s", res.Method, got, wantResults[res.Method])
		}
	}
}

func TestQueryTimeout(t *testing.T) {
	// A peer that completes the handshake but never answers queries.
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		if _, data, err := conn.ReadMessage(); err == nil {
			_ = conn.WriteMessage(websocket.BinaryMessage, data)
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Handshake(ctx, Identity{Name: "n", Chain: "c"}); err != nil {
		t.Fatalf("Handshake: %v", err)
	}

	qctx, qcancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer qcancel()
	_, err = sess.Query(qctx, []string{"system_name"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Query error = %v, want ErrTimeout", err)
	}
}

func TestSessionClosedByPeer(t *testing.T) {
	// A peer that closes cleanly without replying to the handshake.
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer sess.Close()

	_, err = sess.Handshake(ctx, Identity{Name: "n", Chain: "c"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Handshake error = %v, want ErrClosed", err)
	}
}
