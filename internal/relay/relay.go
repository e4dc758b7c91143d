// Package relay implements the credential-injecting pass-through that sits
// between extraction clients and the provider APIs, so callers never have to
// put long-lived keys in their own requests.
package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider origins the relay forwards to.
const (
	geminiOrigin  = "https://generativelanguage.googleapis.com"
	openaiOrigin  = "https://api.openai.com/v1"
	upstageOrigin = "https://api.upstage.ai/v1"
)

// Environment variables consulted when a request carries no credential.
const (
	EnvGeminiKey  = "GEMINI_API_KEY"
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvUpstageKey = "UPSTAGE_API_KEY"
)

type target struct {
	origin string
	envKey string
	// keyInQuery providers take the credential as a query parameter
	// instead of a bearer token.
	keyInQuery bool
}

var targets = map[string]target{
	"gemini":  {origin: geminiOrigin, envKey: EnvGeminiKey, keyInQuery: true},
	"openai":  {origin: openaiOrigin, envKey: EnvOpenAIKey},
	"upstage": {origin: upstageOrigin, envKey: EnvUpstageKey},
}

// Relay forwards provider requests with injected credentials.
type Relay struct {
	client *http.Client
	logger *slog.Logger

	// getenv is swappable for tests.
	getenv func(string) string

	// origins overrides the forwarding targets, used by tests.
	origins map[string]string
}

// New creates a relay.
func New(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logger,
		getenv: os.Getenv,
	}
}

// Register mounts the full relay on mux, including its health probe. Use
// RegisterProviders when the mux already serves /health.
func (rl *Relay) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rl.handleHealth)
	rl.RegisterProviders(mux)
}

// RegisterProviders mounts only the provider forwarding routes on mux.
func (rl *Relay) RegisterProviders(mux *http.ServeMux) {
	for name := range targets {
		mux.HandleFunc("POST /api/"+name, rl.forwardHandler(name))
		mux.HandleFunc("POST /api/"+name+"/{path...}", rl.forwardHandler(name))
	}
}

func (rl *Relay) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

func (rl *Relay) forwardHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rl.forward(w, r, name)
	}
}

// forward proxies one request. The credential is resolved in priority order:
// an apiKey field in a JSON body, then the incoming Authorization header,
// then the provider's environment variable.
func (rl *Relay) forward(w http.ResponseWriter, r *http.Request, name string) {
	tgt := targets[name]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRelayError(w, http.StatusBadRequest, "failed to read request body", err.Error())
		return
	}

	key, body := rl.resolveCredential(r, tgt, body)
	if key == "" {
		writeRelayError(w, http.StatusUnauthorized, "no credential available for "+name, "")
		return
	}

	origin := tgt.origin
	if o, ok := rl.origins[name]; ok {
		origin = o
	}
	url := origin
	if path := r.PathValue("path"); path != "" {
		url += "/" + path
	}
	if tgt.keyInQuery {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "key=" + key
	}
	if q := r.URL.RawQuery; q != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + q
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		writeRelayError(w, http.StatusInternalServerError, "failed to build upstream request", err.Error())
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if !tgt.keyInQuery {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := rl.client.Do(req)
	if err != nil {
		writeRelayError(w, http.StatusBadGateway, "upstream request failed", err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		writeRelayError(w, http.StatusBadGateway, "failed to read upstream response", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rl.logger.Warn("upstream error", "provider", name, "status", resp.StatusCode)
		writeRelayError(w, resp.StatusCode, "upstream returned status "+resp.Status, string(respBody))
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)
}

// resolveCredential finds the key and returns the body with any inline
// credential stripped, so keys never travel to the provider.
func (rl *Relay) resolveCredential(r *http.Request, tgt target, body []byte) (string, []byte) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") && len(body) > 0 {
		var payload map[string]json.RawMessage
		if json.Unmarshal(body, &payload) == nil {
			if rawKey, ok := payload["apiKey"]; ok {
				var key string
				if json.Unmarshal(rawKey, &key) == nil && key != "" {
					delete(payload, "apiKey")
					if stripped, err := json.Marshal(payload); err == nil {
						return key, stripped
					}
					return key, body
				}
			}
		}
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer "), body
	}
	if key := r.Header.Get("X-Goog-Api-Key"); key != "" {
		return key, body
	}

	return rl.getenv(tgt.envKey), body
}

func writeRelayError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg,
		"details": details,
	})
}
