package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestMonitorHandler_StreamsDebugState(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/monitor/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var state map[string]interface{}
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if state["active_player"] != "A" {
		t.Errorf("active_player = %v, want A", state["active_player"])
	}
	if _, ok := state["timecode"]; !ok {
		t.Error("snapshot missing timecode")
	}

	// Snapshots keep coming while the connection is open.
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("read second snapshot: %v", err)
	}
}
