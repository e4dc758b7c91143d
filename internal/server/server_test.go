package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minjae-lee/settlescan/internal/home"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:   "127.0.0.1",
		Port:   "0",
		Home:   h,
		Logger: slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestServer_HealthBeforeInit(t *testing.T) {
	srv := testServer(t)

	// Health has no init requirement and must answer before services exist.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "OK" {
		t.Errorf("health.Status = %q, want %q", health.Status, "OK")
	}
}

func TestServer_RequireInit(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/pages", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("uninitialized status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	if err := srv.InitForTest(); err != nil {
		t.Fatalf("InitForTest() error = %v", err)
	}
	defer srv.Close()

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/pages", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("initialized status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServer_StatusEndpoint(t *testing.T) {
	srv := testServer(t)
	if err := srv.InitForTest(); err != nil {
		t.Fatalf("InitForTest() error = %v", err)
	}
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status struct {
		Server    string   `json:"server"`
		Providers []string `json:"providers"`
		Files     int      `json:"files"`
		Selected  int      `json:"selectedPages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Server != "running" {
		t.Errorf("status.Server = %q, want %q", status.Server, "running")
	}
	if status.Files != 0 || status.Selected != 0 {
		t.Errorf("fresh server reports files=%d selected=%d, want 0/0", status.Files, status.Selected)
	}
}

func TestServer_RelayRoutesMounted(t *testing.T) {
	srv := testServer(t)

	// A relay call without any credential is rejected by the relay itself,
	// not by the route table.
	t.Setenv("GEMINI_API_KEY", "")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/gemini/v1beta/models", nil))

	if rec.Code == http.StatusNotFound {
		t.Fatalf("relay route not mounted, got 404")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("credential-less relay call status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestServer_Lifecycle starts a real listener and shuts it down via context.
func TestServer_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping lifecycle test in short mode")
	}

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	port := "18315"
	srv, err := New(Config{
		Host:   "127.0.0.1",
		Port:   port,
		Home:   h,
		Logger: slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%s", port)
	if err := waitForServer(ctx, baseURL, 15*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving, want true")
	}

	// Double start fails while running.
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should return error")
	}

	serverCancel()

	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() returned error on shutdown: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("server did not shut down within timeout")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}

// waitForServer polls the server until it responds or timeout.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(200 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %s", timeout)
}
