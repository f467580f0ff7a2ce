package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"autoclicker/internal/config"
	"autoclicker/internal/engine"
	"autoclicker/internal/logging"
	"autoclicker/internal/network"
	"autoclicker/internal/protocol"
)

type stubHandler struct{}

func (stubHandler) Handle(_ context.Context, payload []byte) []byte {
	msg, err := protocol.Decode(payload)
	if err != nil {
		return protocol.Encode(protocol.NewError(err.Error()))
	}
	if _, ok := msg.(protocol.StopClicking); ok {
		return protocol.Encode(protocol.ConfirmResponse{})
	}
	return protocol.Encode(protocol.NewError("mouse virtualization has been disabled in the configs"))
}

type stubStatus struct{}

func (stubStatus) Status() engine.Status {
	return engine.Status{Active: protocol.TypeRepeatingMouseClick, CyclesCompleted: 7}
}

func newTestServer(t *testing.T, token string) (*httptest.Server, string) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Daemon.API.Token = token

	s := NewServer(stubHandler{}, stubStatus{}, func() config.Config { return *cfg })
	s.log = logging.Discard()
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return ts, strings.TrimPrefix(ts.URL, "http://")
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// TestHealthSkipsAuth tests that /health works without a token
func TestHealthSkipsAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	if resp := do(t, http.MethodGet, ts.URL+"/health", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", resp.StatusCode)
	}
}

// TestAuth tests bearer token enforcement
func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")

	tests := []struct {
		token string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		if resp := do(t, http.MethodGet, ts.URL+"/api/status", tt.token, ""); resp.StatusCode != tt.want {
			t.Errorf("GET /api/status with token %q = %d, want %d", tt.token, resp.StatusCode, tt.want)
		}
	}
}

// TestStatus tests the status snapshot endpoint
func TestStatus(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp := do(t, http.MethodGet, ts.URL+"/api/status", "", "")

	var st engine.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Active != protocol.TypeRepeatingMouseClick || st.CyclesCompleted != 7 {
		t.Errorf("status = %+v", st)
	}

	if resp := do(t, http.MethodPost, ts.URL+"/api/status", "", ""); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/status = %d, want 405", resp.StatusCode)
	}
}

// TestRequest tests POST /api/request for accepted and rejected payloads
func TestRequest(t *testing.T) {
	ts, _ := newTestServer(t, "")

	tests := []struct {
		body string
		code int
		typ  protocol.MessageType
	}{
		{`{"type":"StopClicking"}`, http.StatusOK, protocol.TypeConfirmResponse},
		{`{"type":"RepeatingMouseClick","button":"left","typ":"single","amount":0,"interval":1,"position":[null,null]}`, http.StatusBadRequest, protocol.TypeError},
		{`nonsense`, http.StatusBadRequest, protocol.TypeError},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodPost, ts.URL+"/api/request", "", tt.body)
		if resp.StatusCode != tt.code {
			t.Errorf("POST %s = %d, want %d", tt.body, resp.StatusCode, tt.code)
		}
		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			t.Fatal(err)
		}
		msg, err := protocol.Decode(raw)
		if err != nil || msg.Type() != tt.typ {
			t.Errorf("POST %s replied %s, %v; want %s", tt.body, raw, err, tt.typ)
		}
	}
}

// TestRequestContentType tests that /api/request only accepts JSON bodies
func TestRequestContentType(t *testing.T) {
	ts, _ := newTestServer(t, "")

	tests := []struct {
		contentType string
		want        int
	}{
		{"", http.StatusUnsupportedMediaType},
		{"text/plain", http.StatusUnsupportedMediaType},
		{"application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"application/json; charset=utf-8", http.StatusOK},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/request", strings.NewReader(`{"type":"StopClicking"}`))
		if err != nil {
			t.Fatal(err)
		}
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}
		if resp := send(t, req); resp.StatusCode != tt.want {
			t.Errorf("POST with Content-Type %q = %d, want %d", tt.contentType, resp.StatusCode, tt.want)
		}
	}
}

// TestCrossOriginRejected tests that pages from other origins cannot drive
// the API over HTTP or WebSocket
func TestCrossOriginRejected(t *testing.T) {
	ts, addr := newTestServer(t, "")

	tests := []struct {
		origin string
		want   int
	}{
		{"https://evil.example", http.StatusForbidden},
		{"http://localhost.evil.example", http.StatusForbidden},
		{"null", http.StatusForbidden},
		{"http://" + addr, http.StatusOK},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/request", strings.NewReader(`{"type":"StopClicking"}`))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", tt.origin)
		if resp := send(t, req); resp.StatusCode != tt.want {
			t.Errorf("POST with Origin %q = %d, want %d", tt.origin, resp.StatusCode, tt.want)
		}
	}

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", header)
	if err == nil {
		conn.Close()
		t.Fatal("Expected cross-origin WebSocket upgrade to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("cross-origin upgrade response = %v, want 403", resp)
	}
}

// TestConfigHidesToken tests that /api/config masks the token
func TestConfigHidesToken(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	resp := do(t, http.MethodGet, ts.URL+"/api/config", "secret", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/config = %d", resp.StatusCode)
	}
	var cfg config.Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Daemon.API.Token == "secret" {
		t.Error("token leaked through /api/config")
	}
}

// TestWebSocket tests request and reply frames through network.WSClient
func TestWebSocket(t *testing.T) {
	_, addr := newTestServer(t, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := network.NewWSClient(addr, "secret")
	defer client.Close()

	if err := client.Send(ctx, protocol.StopClicking{}); err != nil {
		t.Fatalf("Send(stop) = %v", err)
	}

	err := client.Send(ctx, protocol.RepeatingMouseClick{Button: protocol.ButtonLeft, ClickType: protocol.ClickSingle})
	var rejected *network.RejectedError
	if !errors.As(err, &rejected) {
		t.Errorf("Send(mouse) = %v, want RejectedError", err)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.CyclesCompleted != 7 {
		t.Errorf("Status = %+v", st)
	}

	if err := network.NewWSClient(addr, "wrong").Ready(ctx); err == nil {
		t.Error("Expected unauthorized client to fail")
	}
}

// TestCheckLoopback tests the bind address restriction
func TestCheckLoopback(t *testing.T) {
	tests := []struct {
		addr string
		ok   bool
	}{
		{"127.0.0.1:18080", true},
		{"localhost:1", true},
		{"[::1]:80", true},
		{"0.0.0.0:18080", false},
		{"192.168.1.5:80", false},
		{"no-port", false},
	}
	for _, tt := range tests {
		if err := checkLoopback(tt.addr); (err == nil) != tt.ok {
			t.Errorf("checkLoopback(%q) = %v, want ok=%v", tt.addr, err, tt.ok)
		}
	}
}
