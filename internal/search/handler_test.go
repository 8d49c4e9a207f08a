package search

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newSearchContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	h := NewHandler(NewService(Config{}, &fakeIndex{}, &fakeFinder{}, &fakeEmbedder{}, testLogger()), testLogger())
	c, _ := newSearchContext(`{"query":"   "}`)

	err := h.HandleSearch(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandleSearch_UnknownType(t *testing.T) {
	h := NewHandler(NewService(Config{}, &fakeIndex{}, &fakeFinder{}, &fakeEmbedder{}, testLogger()), testLogger())
	c, _ := newSearchContext(`{"query":"q","search_type":"dreams"}`)

	err := h.HandleSearch(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandleSearch_WebDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"ok","results":[]}`))
	}))
	defer ts.Close()

	svc := NewService(Config{Endpoint: ts.URL}, &fakeIndex{}, &fakeFinder{}, &fakeEmbedder{}, testLogger())
	h := NewHandler(svc, testLogger())
	c, rec := newSearchContext(`{"query":"latest news"}`)

	if err := h.HandleSearch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"answer":"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
