package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"

	"randomchallenge/api/internal/models"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func prepareServerGlobals(t *testing.T, dsn string) {
	t.Helper()
	resetServerGlobals()
	t.Cleanup(resetServerGlobals)
	newLogger = func(...zap.Option) (*zap.Logger, error) { return zap.NewNop(), nil }
	notifyShutdown = func(chan<- os.Signal) {}

	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", dsn)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SEED_ON_START", "")
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRunServesHealth(t *testing.T) {
	prepareServerGlobals(t, "file:server-health?mode=memory&cache=shared")

	var addr string
	var health, ready, metricsCode int
	listenAndServe = func(srv *http.Server) error {
		addr = srv.Addr
		health = serve(srv.Handler, http.MethodGet, "/healthz", "").Code
		ready = serve(srv.Handler, http.MethodGet, "/readyz", "").Code
		metricsCode = serve(srv.Handler, http.MethodGet, "/metrics", "").Code
		return http.ErrServerClosed
	}

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if addr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %s", addr)
	}
	if health != http.StatusOK || ready != http.StatusOK {
		t.Fatalf("expected health endpoints to respond, got healthz=%d readyz=%d", health, ready)
	}
	if metricsCode != http.StatusOK {
		t.Fatalf("expected /metrics to respond, got %d", metricsCode)
	}
}

func TestRunSeedsOnStart(t *testing.T) {
	prepareServerGlobals(t, "file:server-seed?mode=memory&cache=shared")
	t.Setenv("SEED_ON_START", "true")

	var categories models.CategoriesResponse
	var random int
	listenAndServe = func(srv *http.Server) error {
		rec := serve(srv.Handler, http.MethodGet, "/api/v1/categories", "")
		if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
			return err
		}
		random = serve(srv.Handler, http.MethodGet, "/api/v1/challenges/random?difficulty=easy", "").Code
		return nil
	}

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if categories.Count != 8 {
		t.Fatalf("expected 8 seeded categories, got %d", categories.Count)
	}
	if random != http.StatusOK {
		t.Fatalf("expected a random easy challenge, got %d", random)
	}
}

func TestRunUsesRedisSessions(t *testing.T) {
	prepareServerGlobals(t, "file:server-redis?mode=memory&cache=shared")
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	var registered int
	listenAndServe = func(srv *http.Server) error {
		body := `{"username":"alice","email":"alice@example.com","password":"Secret123"}`
		registered = serve(srv.Handler, http.MethodPost, "/api/v1/auth/register", body).Code
		return nil
	}

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if registered != http.StatusCreated {
		t.Fatalf("expected register to succeed, got %d", registered)
	}
	found := false
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "sessions:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a session key in redis, got %v", mr.Keys())
	}
}

func TestRunRedisUnavailable(t *testing.T) {
	prepareServerGlobals(t, "file:server-noredis?mode=memory&cache=shared")
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	t.Setenv("REDIS_ADDR", addr)

	if err := run(); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestRunGracefulShutdown(t *testing.T) {
	prepareServerGlobals(t, "file:server-shutdown?mode=memory&cache=shared")
	t.Setenv("PORT", "0")
	notifyShutdown = func(c chan<- os.Signal) { c <- syscall.SIGTERM }

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}

func TestRunListenFailure(t *testing.T) {
	prepareServerGlobals(t, "file:server-listen?mode=memory&cache=shared")
	listenAndServe = func(*http.Server) error { return errors.New("listen failed") }

	if err := run(); err == nil {
		t.Fatalf("expected listen error from run")
	}
}

func TestRunInvalidSchedule(t *testing.T) {
	prepareServerGlobals(t, "file:server-cron?mode=memory&cache=shared")
	t.Setenv("STATS_REFRESH_SCHEDULE", "every now and then")

	if err := run(); err == nil {
		t.Fatalf("expected schedule error from run")
	}
}

func TestRunConfigFailure(t *testing.T) {
	prepareServerGlobals(t, "file:server-config?mode=memory&cache=shared")
	t.Setenv("JWT_SECRET", "")

	if err := run(); err == nil {
		t.Fatalf("expected config error from run")
	}
}

func TestRunLoggerFailure(t *testing.T) {
	prepareServerGlobals(t, "file:server-logger?mode=memory&cache=shared")
	newLogger = func(...zap.Option) (*zap.Logger, error) { return nil, errors.New("logger boom") }

	if err := run(); err == nil {
		t.Fatalf("expected logger error from run")
	}
}

func TestMainHandlesError(t *testing.T) {
	prepareServerGlobals(t, "file:server-main?mode=memory&cache=shared")
	t.Setenv("STORE_BACKEND", "cassandra")

	var captured error
	exitCalled := false
	exitFunc = func(int) { exitCalled = true }
	logFatalFn = func(err error) {
		captured = err
		exitFunc(1)
	}

	main()

	if captured == nil {
		t.Fatalf("expected logFatalFn to capture error")
	}
	if !exitCalled {
		t.Fatalf("expected exitFunc to be invoked")
	}
}

func TestDefaultLogFatal(t *testing.T) {
	resetServerGlobals()
	t.Cleanup(resetServerGlobals)

	var code int
	exitFunc = func(c int) { code = c }

	defaultLogFatal(errors.New("boom"))

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}
