package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-address-service/internal/adapter/db/postgres"
	"user-address-service/internal/adapter/gin/handler"
	"user-address-service/internal/usecase/user"
)

func benchmarkRouter(b *testing.B, users int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	log := zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		b.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		b.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	b.Cleanup(func() { _ = sqlDB.Close() })
	if err := postgres.AutoMigrate(db); err != nil {
		b.Fatal(err)
	}

	r := SetupRouter(handler.NewUserHandler(user.New(postgres.NewUserRepoPG(db, log), log), log), nil, nil, log)

	for i := 0; i < users; i++ {
		body := fmt.Sprintf(`{"username":"user%04d","addresses":[{"line1":"%d Main St"}]}`, i, i)
		req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			b.Fatalf("seed user %d: %d %s", i, w.Code, w.Body.String())
		}
	}
	return r
}

func BenchmarkGetUserWithAddresses(b *testing.B) {
	r := benchmarkRouter(b, 100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d?addresses=true", i%100+1), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkSearchUsers(b *testing.B) {
	r := benchmarkRouter(b, 100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/users?query=user00&limit=20", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}
