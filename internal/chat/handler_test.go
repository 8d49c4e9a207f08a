package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newChatContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleChat_MissingMessage(t *testing.T) {
	h := NewHandler(NewService(Config{APIKey: "k"}, testLogger()), testLogger())
	c, _ := newChatContext(`{"message":"   "}`)

	err := h.HandleChat(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandleChat_MissingKey(t *testing.T) {
	h := NewHandler(NewService(Config{}, testLogger()), testLogger())
	c, _ := newChatContext(`{"message":"what happened today"}`)

	err := h.HandleChat(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
}

func TestHandleChat_ReturnsAssistantMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"big news"}}]}`))
	}))
	defer ts.Close()

	h := NewHandler(NewService(Config{BaseURL: ts.URL, APIKey: "k"}, testLogger()), testLogger())
	c, rec := newChatContext(`{"message":"what happened today"}`)

	if err := h.HandleChat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"content":"big news"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
