package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxelstream/internal/streaming"
)

func testSource() Snapshot {
	return Snapshot{
		Session: "s1",
		Time:    time.Unix(0, 0).UTC(),
		Chunk:   [3]int{1, 0, -2},
		Stats:   streaming.Stats{Resident: 125, Meshed: 27},
	}
}

func TestStatsHandler(t *testing.T) {
	h := NewHub(testSource, time.Second, nil)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Stats.Resident != 125 || got.Chunk != [3]int{1, 0, -2} {
		t.Errorf("Unexpected snapshot %+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}
}

func TestWebsocketReceivesSnapshots(t *testing.T) {
	h := NewHub(testSource, 10*time.Millisecond, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Snapshot
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Session != "s1" || got.Stats.Meshed != 27 {
		t.Errorf("Unexpected snapshot %+v", got)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := NewHub(testSource, time.Second, nil)
	if err := h.Broadcast(testSource()); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if h.Clients() != 0 {
		t.Errorf("Expected no clients")
	}
}
