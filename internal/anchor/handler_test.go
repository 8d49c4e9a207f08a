package anchor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
)

func newBroadcastContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/anchor", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeStreamError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body streamError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a stream error: %v (body %q)", err, rec.Body.String())
	}
	return body.Error
}

func TestHandleBroadcast_MissingBaseURL(t *testing.T) {
	var upstreamCalls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
	}))
	defer ts.Close()

	h := NewHandler(Config{BaseURL: "  ", APIKey: "key"}, nil, discardLogger())
	c, rec := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if msg := decodeStreamError(t, rec); msg != "ANCHOR_SERVICE_URL not configured" {
		t.Errorf("unexpected error message %q", msg)
	}
	if upstreamCalls.Load() != 0 {
		t.Errorf("no upstream call should be made, saw %d", upstreamCalls.Load())
	}
}

func TestHandleBroadcast_MissingAPIKey(t *testing.T) {
	var upstreamCalls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
	}))
	defer ts.Close()

	h := NewHandler(Config{BaseURL: ts.URL, APIKey: ""}, nil, discardLogger())
	c, rec := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if msg := decodeStreamError(t, rec); msg != "ANCHOR_API_KEY not configured" {
		t.Errorf("unexpected error message %q", msg)
	}
	if upstreamCalls.Load() != 0 {
		t.Errorf("no upstream call should be made, saw %d", upstreamCalls.Load())
	}
}

func TestHandleBroadcast_UpstreamRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	h := NewHandler(Config{BaseURL: ts.URL, APIKey: "key"}, nil, discardLogger())
	c, rec := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected upstream status 503, got %d", rec.Code)
	}
	if msg := decodeStreamError(t, rec); msg != "Backend responded with 503" {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestHandleBroadcast_RelaysBytesAndHeaders(t *testing.T) {
	var sawAPIKey atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAPIKey.Store(r.Header.Get("X-API-Key"))
		if r.Method != http.MethodPost {
			t.Errorf("upstream expects POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("X-Task-ID", "task-42")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"c1", "c2", "c3"} {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer ts.Close()

	h := NewHandler(Config{BaseURL: ts.URL, APIKey: "secret"}, nil, discardLogger())
	c, rec := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "c1c2c3" {
		t.Errorf("expected relayed body c1c2c3, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("expected upstream content type, got %q", got)
	}
	if got := rec.Header().Get("X-Task-ID"); got != "task-42" {
		t.Errorf("expected forwarded task id, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache, no-store, must-revalidate" {
		t.Errorf("unexpected cache policy %q", got)
	}
	if key, _ := sawAPIKey.Load().(string); key != "secret" {
		t.Errorf("expected X-API-Key secret sent upstream, got %q", key)
	}
}

func TestHandleBroadcast_DefaultContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit content type; force an empty one so the default kicks in.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("pcm"))
	}))
	defer ts.Close()

	h := NewHandler(Config{BaseURL: ts.URL, APIKey: "key"}, nil, discardLogger())
	c, rec := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/wav" {
		t.Errorf("expected audio/wav fallback, got %q", got)
	}
}

type countingGauge struct {
	increments atomic.Int64
	decrements atomic.Int64
}

func (g *countingGauge) IncrementBroadcasts() { g.increments.Add(1) }
func (g *countingGauge) DecrementBroadcasts() { g.decrements.Add(1) }

func TestHandleBroadcast_MidStreamFailureAbortsResponse(t *testing.T) {
	// Promise more bytes than arrive so the relay sees an unexpected EOF
	// after the first chunk.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write([]byte("c1"))
		w.(http.Flusher).Flush()
	}))
	defer ts.Close()

	gauge := &countingGauge{}
	h := NewHandler(Config{BaseURL: ts.URL, APIKey: "key"}, gauge, discardLogger())
	c, rec := newBroadcastContext(t)

	defer func() {
		r := recover()
		if r != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler panic, got %v", r)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status must already be 200 when the stream dies, got %d", rec.Code)
		}
		if got := rec.Body.String(); got != "c1" {
			t.Errorf("bytes before the failure must be delivered, got %q", got)
		}
		if gauge.increments.Load() != 1 || gauge.decrements.Load() != 1 {
			t.Errorf("gauge must drop on abort, inc=%d dec=%d", gauge.increments.Load(), gauge.decrements.Load())
		}
	}()

	_ = h.HandleBroadcast(c)
	t.Error("expected the handler to panic on a mid-stream failure")
}

func TestHandleBroadcast_GaugeTracksStreamLifetime(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("c1"))
	}))
	defer ts.Close()

	gauge := &countingGauge{}
	h := NewHandler(Config{BaseURL: ts.URL, APIKey: "key"}, gauge, discardLogger())
	c, _ := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if gauge.increments.Load() != 1 || gauge.decrements.Load() != 1 {
		t.Errorf("expected one increment and one decrement, inc=%d dec=%d", gauge.increments.Load(), gauge.decrements.Load())
	}
}

func TestHandleBroadcast_GaugeUntouchedOnPreconditionFailure(t *testing.T) {
	gauge := &countingGauge{}
	h := NewHandler(Config{}, gauge, discardLogger())
	c, _ := newBroadcastContext(t)

	if err := h.HandleBroadcast(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if gauge.increments.Load() != 0 || gauge.decrements.Load() != 0 {
		t.Errorf("gauge must not move before streaming starts, inc=%d dec=%d", gauge.increments.Load(), gauge.decrements.Load())
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://anchor.example.com", "https://anchor.example.com"},
		{"http://localhost:9000", "http://localhost:9000"},
		{"anchor.example.com", "https://anchor.example.com"},
		{"  anchor.example.com  ", "https://anchor.example.com"},
	}
	for _, tt := range tests {
		if got := normalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCopyStreamHeaders_SkipsBlankMetadata(t *testing.T) {
	src := http.Header{}
	src.Set("Content-Type", "audio/wav")
	src.Set("X-Task-ID", "   ")

	dst := http.Header{}
	copyStreamHeaders(dst, src)

	if _, ok := dst["X-Task-Id"]; ok {
		t.Error("blank X-Task-ID must not be forwarded")
	}
	if dst.Get("Pragma") != "no-cache" {
		t.Errorf("expected Pragma no-cache, got %q", dst.Get("Pragma"))
	}
	if dst.Get("Expires") != "0" {
		t.Errorf("expected Expires 0, got %q", dst.Get("Expires"))
	}
}
