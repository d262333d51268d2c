package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/devincimaker/mil4dy/pkg/catalog"
	"github.com/devincimaker/mil4dy/pkg/protocol"
	"github.com/devincimaker/mil4dy/pkg/session"
)

type nullPlayer struct{}

func (nullPlayer) Play(catalog.Item) error      { return nil }
func (nullPlayer) QueueNext(catalog.Item) error { return nil }

func testServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	sess := session.New(session.DefaultConfig(), catalog.Demo(), nullPlayer{})
	t.Cleanup(sess.Stop)
	return NewServer("0", sess), sess
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status protocol.StatusData
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.State != "idle" {
		t.Errorf("state = %s, want idle", status.State)
	}
	if status.Source != "sensed" {
		t.Errorf("source = %s, want sensed", status.Source)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv, sess := testServer(t)

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/api/catalog", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var items []catalog.Item
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("decoding catalog: %v", err)
	}
	if len(items) != len(sess.Catalog()) {
		t.Errorf("catalog size = %d, want %d", len(items), len(sess.Catalog()))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv, sess := testServer(t)
	sess.History().Record("late-checkout")

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/api/history", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		IDs []string `json:"ids"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(payload.IDs) != 1 || payload.IDs[0] != "late-checkout" {
		t.Errorf("history = %v", payload.IDs)
	}
}

func TestPauseConflictsWhenIdle(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := srv.app.Test(httptest.NewRequest("POST", "/api/pause", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 409 {
		t.Errorf("status = %d, want 409 for pause while idle", resp.StatusCode)
	}
}

func TestSkipIsIdempotentWhenIdle(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := srv.app.Test(httptest.NewRequest("POST", "/api/skip", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWSRouteRequiresUpgrade(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/ws/mood", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 426 {
		t.Errorf("status = %d, want 426 Upgrade Required", resp.StatusCode)
	}
}
