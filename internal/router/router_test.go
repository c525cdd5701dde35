package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/slipstreak/internal/db"
	"github.com/slipstreak/internal/handler"
	"github.com/slipstreak/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T, developmentMode bool) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.HabitSnapshot{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	records := service.NewRecordService(db.NewSnapshotStore(gdb), service.SystemClock())
	records.SetDevelopmentMode(developmentMode)
	api := handler.NewAPI(records, service.NewStreakService(records))

	return SetupRouter(api, developmentMode), func() {
		records.Close()
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestSetupRouterServesPing(t *testing.T) {
	r, cleanup := setupRouterTest(t, false)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestSetupRouterRegistersHabitRoutes(t *testing.T) {
	r, cleanup := setupRouterTest(t, false)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/habit", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestSetupRouterHidesDevRoutesInProduction(t *testing.T) {
	r, cleanup := setupRouterTest(t, false)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/dev/advance-day", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSetupRouterExposesDevRoutesInDevelopment(t *testing.T) {
	r, cleanup := setupRouterTest(t, true)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/dev/advance-day", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if rr.Body.Len() == 0 {
		t.Fatal("expected non-empty response body")
	}
}
