package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/metrics"
	"github.com/muurk/stouch/internal/protocol"
	"github.com/muurk/stouch/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// silentDevice returns the address of a UDP socket that never answers
func silentDevice(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn.LocalAddr().(*net.UDPAddr)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Session) {
	t.Helper()
	dev := silentDevice(t)
	sess := session.New(session.Config{
		Endpoint:       session.Endpoint{Address: "127.0.0.1", Port: dev.Port, Password: "pw"},
		Retries:        1,
		ReceiveTimeout: 20 * time.Millisecond,
	})

	d := sess.Display()
	d.AddButton(protocol.Button{ID: 5, XMin: 10, YMin: 10, XMax: 60, YMax: 40})
	d.AddText(protocol.TextAt{X: 100, Y: 100, Text: "Menu"})

	cfg := &Config{Host: "127.0.0.1", Metrics: true, MaxLoops: 3}
	return New(cfg, sess, opts...), sess
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestTouchEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantButton int
	}{
		{"touch inside button", http.MethodGet, "/api/touch/touch?x=20&y=20", http.StatusOK, 5},
		{"touch outside button", http.MethodPost, "/api/touch/touch?x=200&y=200", http.StatusOK, -1},
		{"touch missing y", http.MethodGet, "/api/touch/touch?x=1", http.StatusBadRequest, 0},
		{"touch bad x", http.MethodGet, "/api/touch/touch?x=a&y=1", http.StatusBadRequest, 0},
		{"button present", http.MethodPost, "/api/touch/touchbutton?id=5", http.StatusOK, 5},
		{"button absent", http.MethodGet, "/api/touch/touchbutton?id=6", http.StatusNotFound, 0},
		{"button bad id", http.MethodGet, "/api/touch/touchbutton?id=x", http.StatusBadRequest, 0},
		{"text present", http.MethodGet, "/api/touch/touchtext?text=Menu", http.StatusOK, -1},
		{"text absent", http.MethodGet, "/api/touch/touchtext?text=Gone", http.StatusNotFound, 0},
		{"text empty", http.MethodGet, "/api/touch/touchtext?text=", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusOK {
				if resp := decode[errorResponse](t, rec); resp.Error == "" {
					t.Error("error response without message")
				}
				return
			}
			resp := decode[touchResponse](t, rec)
			if resp.Touch.Button != tt.wantButton {
				t.Errorf("touch button = %d, want %d", resp.Touch.Button, tt.wantButton)
			}
		})
	}
}

func TestConnectTimeout(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/touch/connect")
	if rec.Code != http.StatusRequestTimeout {
		t.Fatalf("status = %d, want 408", rec.Code)
	}
	resp := decode[connectResponse](t, rec)
	if resp.Result != "TIMEOUT" || resp.Message != session.Timeout.Message() {
		t.Errorf("response = %+v", resp)
	}

	rec = do(t, s, http.MethodGet, "/api/touch/disconnect")
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d", rec.Code)
	}
	if resp := decode[disconnectResponse](t, rec); resp.Confirmed {
		t.Error("disconnect without a session reported confirmation")
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/api/touch/touch?x=20&y=20")

	rec := do(t, s, http.MethodGet, "/api/touch/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if raw["state"] != "disconnected" || raw["connected"] != false {
		t.Errorf("status = %v", raw)
	}
	if _, ok := raw["connected_at"]; ok {
		t.Error("connected_at set while disconnected")
	}
	touch := raw["touch"].(map[string]any)
	if touch["x"] != float64(20) || touch["button"] != float64(5) {
		t.Errorf("touch = %v", touch)
	}
}

func TestScreenViews(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/touch/screen")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("screen status = %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("screen is not a PNG")
	}

	rec = do(t, s, http.MethodGet, "/api/touch/objecttree")
	if tree := rec.Body.String(); !strings.Contains(tree, "Button ID: 5") || !strings.Contains(tree, "Text: Menu") {
		t.Errorf("object tree = %q", tree)
	}

	rec = do(t, s, http.MethodGet, "/api/touch/excalidraw")
	scene := decode[map[string]any](t, rec)
	if scene["type"] != "excalidraw" {
		t.Errorf("excalidraw type = %v", scene["type"])
	}

	rec = do(t, s, http.MethodGet, "/api/touch/scene")
	view := decode[sceneView](t, rec)
	if len(view.Buttons) != 1 || view.Buttons[0].ID != 5 || len(view.Texts) != 1 || view.Texts[0].Text != "Menu" {
		t.Errorf("scene = %+v", view)
	}
	if view.Rectangles == nil || view.Symbols == nil {
		t.Error("empty collections should encode as []")
	}
}

func TestDebugScreen(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/touch/debugscreen?touch=10,20&touch=30,%2040")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"data:image/png;base64,", "<li>touch=10,20</li>", "<li>touch=30,40</li>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = do(t, s, http.MethodGet, "/api/touch/debugscreen?touch=10")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed touch status = %d, want 400", rec.Code)
	}
}

func TestParseTouchHistory(t *testing.T) {
	tests := []struct {
		in      []string
		want    int
		wantErr bool
	}{
		{nil, 0, false},
		{[]string{"1,2", " 3 , 4 "}, 2, false},
		{[]string{"1"}, 0, true},
		{[]string{"1,b"}, 0, true},
	}
	for _, tt := range tests {
		got, err := parseTouchHistory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTouchHistory(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("parseTouchHistory(%v) = %v", tt.in, got)
		}
	}
}

func TestAutomation(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantDone   int
		wantKind   string
	}{
		{"success", "touch=20,20&touchtext=Menu&checkbutton==5&thenaction=touchbutton=5", http.StatusOK, 3, ""},
		{"parse error", "touch=1", http.StatusBadRequest, 0, ""},
		{"empty", "", http.StatusBadRequest, 0, ""},
		{"missing text", "touch=1,1&touchtext=Gone", http.StatusNotFound, 1, "action failed"},
		{"loop limit", "whiletext==Menu&doaction=none", http.StatusRequestTimeout, 0, "loop limit reached"},
		{"connect timeout", "connect&touch=1,1", http.StatusRequestTimeout, 0, "action failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := do(t, s, http.MethodGet, "/api/touch/automation?"+tt.query)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusBadRequest {
				return
			}
			resp := decode[automationResponse](t, rec)
			if len(resp.Completed) != tt.wantDone {
				t.Errorf("completed = %v, want %d steps", resp.Completed, tt.wantDone)
			}
			if tt.wantKind == "" {
				if !resp.OK || resp.Failure != nil {
					t.Errorf("response = %+v, want ok", resp)
				}
				return
			}
			if resp.OK || resp.Failure == nil || resp.Failure.Kind != tt.wantKind {
				t.Errorf("failure = %+v, want kind %q", resp.Failure, tt.wantKind)
			}
		})
	}
}

type fakeFinder struct {
	devices []*discovery.DeviceInfo
	err     error
}

func (f fakeFinder) Search(context.Context) ([]*discovery.DeviceInfo, error) {
	return f.devices, f.err
}

func TestFind(t *testing.T) {
	supported := &discovery.DeviceInfo{Name: "SystaComfort-II", IP: "127.0.0.1", Port: 3477, Password: "secret", STouchSupported: true}
	unsupported := &discovery.DeviceInfo{Name: "Other", IP: "127.0.0.2"}

	tests := []struct {
		name       string
		finder     Finder
		wantStatus int
	}{
		{"disabled", nil, http.StatusNotImplemented},
		{"search error", fakeFinder{err: errors.New("no interface")}, http.StatusInternalServerError},
		{"nothing supported", fakeFinder{devices: []*discovery.DeviceInfo{unsupported}}, http.StatusServiceUnavailable},
		{"found", fakeFinder{devices: []*discovery.DeviceInfo{unsupported, supported}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.finder != nil {
				opts = append(opts, WithFinder(tt.finder))
			}
			s, _ := newTestServer(t, opts...)
			rec := do(t, s, http.MethodPost, "/api/touch/findsystacomfort")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code == http.StatusOK {
				got := decode[discovery.DeviceInfo](t, rec)
				if got.Name != "SystaComfort-II" || got.Password != "secret" {
					t.Errorf("device = %+v", got)
				}
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))
	s, _ := newTestServer(t, WithMetrics(m))

	rec := do(t, s, http.MethodGet, "/api/health")
	if h := decode[healthResponse](t, rec); rec.Code != http.StatusOK || h.Status != "ok" || h.Build.Commit == "" {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	do(t, s, http.MethodGet, "/api/touch/touchbutton?id=9")
	rec = do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`stouch_http_requests_total{route="/api/health",status="200"} 1`,
		`stouch_http_requests_total{route="/api/touch/touchbutton",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without collectors = %d, want 404", rec.Code)
	}
}

func TestStream(t *testing.T) {
	s, sess := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/touch/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	read := func() sceneView {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var v sceneView
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return v
	}

	if first := read(); len(first.Buttons) != 1 {
		t.Fatalf("initial scene = %+v", first)
	}

	sess.Display().AddButton(protocol.Button{ID: 7, XMin: 100, YMin: 150, XMax: 140, YMax: 190})
	var next sceneView
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); {
		if next = read(); len(next.Buttons) == 2 {
			break
		}
	}
	if len(next.Buttons) != 2 || next.Buttons[1].ID != 7 {
		t.Errorf("scene after change = %+v", next)
	}
	if n := s.ActiveStreams(); n != 1 {
		t.Errorf("ActiveStreams() = %d, want 1", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if n := s.ActiveStreams(); n != 0 {
		t.Errorf("ActiveStreams() after shutdown = %d, want 0", n)
	}
}
