package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/newsdesk/internal/anchor"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newReadyHandler(t *testing.T) *Handler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := anchor.Config{BaseURL: "https://anchor.example.com", APIKey: "key"}
	return NewHandler(db, rdb, nil, cfg, "test")
}

func TestLiveness(t *testing.T) {
	h := newReadyHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := h.Liveness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_DegradedWhenQdrantMissing(t *testing.T) {
	h := newReadyHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for degraded, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
	if resp.Components["database"].Status != StatusHealthy {
		t.Errorf("expected healthy database, got %+v", resp.Components["database"])
	}
	if resp.Components["qdrant"].Status != StatusUnhealthy {
		t.Errorf("expected unhealthy qdrant, got %+v", resp.Components["qdrant"])
	}
}

func TestReadiness_UnhealthyWithoutDatabase(t *testing.T) {
	h := NewHandler(nil, nil, nil, anchor.Config{}, "test")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCheckAnchor_RequiresConfig(t *testing.T) {
	h := NewHandler(nil, nil, nil, anchor.Config{BaseURL: "https://anchor.example.com"}, "test")

	status := h.checkAnchor(nil)
	if status.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy without api key, got %+v", status)
	}
}
