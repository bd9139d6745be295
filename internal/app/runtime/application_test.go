package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/R3E-Network/heroapps/internal/config"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

const seed = `[
  {"_id": "64b7f0c2a1b2c3d4e5f60718", "title": "Hero Quest", "image": "q.png", "rating": 4.8, "size": 120, "downloads": 1000, "description": "rpg"},
  {"_id": "64b7f0c2a1b2c3d4e5f60719", "title": "Superhero Notes", "image": "n.png", "rating": 3.9, "size": "15MB", "downloads": 50, "description": "notes"},
  {"title": "Calculator", "rating": 4.1, "size": 2, "downloads": 9000}
]`

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.json")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Storage.Driver = config.DriverMemory
	cfg.Storage.SeedFile = path
	return cfg
}

func TestNewApplicationMemoryStore(t *testing.T) {
	app, err := NewApplication(context.Background(), memoryConfig(t), logger.Discard())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/apps?search=hero&order=asc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.Bytes()
	assert.Equal(t, int64(2), gjson.GetBytes(body, "totalApps").Int())
	assert.Equal(t, "Superhero Notes", gjson.GetBytes(body, "apps.0.title").String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apps/64b7f0c2a1b2c3d4e5f60719", nil))
	assert.Equal(t, "15MB", gjson.GetBytes(rec.Body.Bytes(), "size").String())

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nothing/here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `{"status":404,"error":"API not found"}`, strings.TrimSpace(rec.Body.String()))

	require.NoError(t, app.Shutdown(context.Background()))
}

func TestNewApplicationMaxLimit(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Listing.MaxLimit = 1

	app, err := NewApplication(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apps?limit=50", nil))
	assert.Equal(t, int64(1), gjson.GetBytes(rec.Body.Bytes(), "apps.#").Int())
	assert.Equal(t, int64(3), gjson.GetBytes(rec.Body.Bytes(), "totalApps").Int())
}

func TestNewApplicationRateLimit(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 1

	app, err := NewApplication(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewApplicationStorageFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Mongo.URI = ""

	_, err := NewApplication(context.Background(), cfg, logger.Discard())
	require.Error(t, err)

	cfg = memoryConfig(t)
	cfg.Storage.SeedFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = NewApplication(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
}

func TestRunAndShutdown(t *testing.T) {
	app, err := NewApplication(context.Background(), memoryConfig(t), logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return app.Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/", app.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())

	resp, err = http.Get(fmt.Sprintf("http://%s/info", app.Addr()))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, gjson.GetBytes(body, "storage.healthy").Bool())
	assert.Equal(t, int64(3), gjson.GetBytes(body, "storage.totalApps").Int())

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, app.Shutdown(context.Background()))
}
