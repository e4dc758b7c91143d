package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testRelay wires a relay to a fake upstream and returns both servers.
func testRelay(t *testing.T, env map[string]string, upstream http.HandlerFunc) (*httptest.Server, *httptest.Server) {
	t.Helper()

	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	rl := New(nil)
	rl.getenv = func(k string) string { return env[k] }
	rl.origins = map[string]string{"gemini": up.URL, "openai": up.URL, "upstage": up.URL}

	mux := http.NewServeMux()
	rl.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, up
}

func TestHealth(t *testing.T) {
	srv, _ := testRelay(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "OK" {
		t.Errorf("body = %v", body)
	}
}

func TestForwardUsesBodyCredentialFirst(t *testing.T) {
	var gotAuth, gotBody string
	srv, _ := testRelay(t,
		map[string]string{EnvOpenAIKey: "env-key"},
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.Write([]byte(`{"ok":true}`))
		})

	body := `{"model":"gpt-4o-mini","apiKey":"body-key"}`
	resp, err := http.Post(srv.URL+"/api/openai/chat/completions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if gotAuth != "Bearer body-key" {
		t.Errorf("Authorization = %q, body credential should win", gotAuth)
	}
	if strings.Contains(gotBody, "body-key") {
		t.Errorf("credential leaked to upstream body: %s", gotBody)
	}
	if !strings.Contains(gotBody, "gpt-4o-mini") {
		t.Errorf("body not forwarded: %s", gotBody)
	}
}

func TestForwardHeaderBeatsEnvironment(t *testing.T) {
	var gotAuth string
	srv, _ := testRelay(t,
		map[string]string{EnvUpstageKey: "env-key"},
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{}`))
		})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/upstage", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer header-key")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer header-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestForwardFallsBackToEnvironment(t *testing.T) {
	var gotAuth string
	srv, _ := testRelay(t,
		map[string]string{EnvOpenAIKey: "env-key"},
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{}`))
		})

	resp, err := http.Post(srv.URL+"/api/openai", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer env-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestForwardGeminiKeyInQuery(t *testing.T) {
	var gotQuery string
	srv, _ := testRelay(t,
		map[string]string{EnvGeminiKey: "g-key"},
		func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{}`))
		})

	resp, err := http.Post(srv.URL+"/api/gemini/v1beta/models/gemini-2.0-flash:generateContent",
		"application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if !strings.Contains(gotQuery, "key=g-key") {
		t.Errorf("query = %q, want key injected", gotQuery)
	}
}

func TestForwardMissingCredential(t *testing.T) {
	srv, _ := testRelay(t, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be reached without a credential")
	})

	resp, err := http.Post(srv.URL+"/api/openai", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestForwardMirrorsUpstreamErrorStatus(t *testing.T) {
	srv, _ := testRelay(t,
		map[string]string{EnvOpenAIKey: "env-key"},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
		})

	resp, err := http.Post(srv.URL+"/api/openai", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 mirrored", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["details"], "slow down") {
		t.Errorf("details = %q", body["details"])
	}
}

func TestAvailable(t *testing.T) {
	rl := New(nil)
	mux := http.NewServeMux()
	rl.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if !Available(context.Background(), srv.URL) {
		t.Error("running relay should be available")
	}
	if Available(context.Background(), "http://127.0.0.1:1") {
		t.Error("dead address should not be available")
	}
}
