package analytics

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleGetAll(t *testing.T) {
	s := newTestStore(t)
	h := NewHandler(s, testLogger())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/views", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("metric")
	c.SetParamValues("views")
	if err := h.HandleIncrement(c); err != nil {
		t.Fatalf("increment: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/analytics", nil)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := h.HandleGetAll(c); err != nil {
		t.Fatalf("get all: %v", err)
	}

	var resp CountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Views != 1 || resp.Shares != 0 {
		t.Errorf("unexpected counts %+v", resp)
	}
}

func TestHandleIncrement_ReturnsNewCount(t *testing.T) {
	s := newTestStore(t)
	h := NewHandler(s, testLogger())
	e := echo.New()

	var resp IncrementResponse
	for i := 1; i <= 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/analytics/entries", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("metric")
		c.SetParamValues("entries")
		if err := h.HandleIncrement(c); err != nil {
			t.Fatalf("increment: %v", err)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Count != int64(i) {
			t.Errorf("expected count %d, got %d", i, resp.Count)
		}
	}
	if resp.Metric != "entries" {
		t.Errorf("expected metric echoed back, got %q", resp.Metric)
	}
}

func TestHandleIncrement_UnknownMetric(t *testing.T) {
	s := newTestStore(t)
	h := NewHandler(s, testLogger())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/downloads", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("metric")
	c.SetParamValues("downloads")

	err := h.HandleIncrement(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
