package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minjae-lee/settlescan/internal/pages"
)

func testPage() *pages.Page {
	return &pages.Page{
		ID:         "page-1",
		Image:      []byte("not-a-real-png"),
		MIME:       "image/png",
		SourceFile: "settlement.pdf",
		PageIndex:  1,
	}
}

func TestUpstageChatVision(t *testing.T) {
	var gotAuth string
	var gotReq upstageChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != upstageChatPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": "Sure! ```json\n{\"date\":\"2024-03-05\",\"totalUSD\":1500}\n```",
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewUpstageClient(UpstageConfig{APIKey: "test-key", BaseURL: srv.URL})
	res, err := c.Extract(context.Background(), testPage(), "solar-pro")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "solar-pro" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message shape: %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Content[1].ImageURL == nil {
		t.Error("missing image part")
	}

	if res.Raw["date"] != "2024-03-05" {
		t.Errorf("date = %v", res.Raw["date"])
	}
	if res.Raw["totalUSD"] != float64(1500) {
		t.Errorf("totalUSD = %v", res.Raw["totalUSD"])
	}
	if res.Model != "solar-pro" || res.Provider != Upstage {
		t.Errorf("result attribution = %s/%s", res.Provider, res.Model)
	}
	if res.OutputTokens == 0 {
		t.Error("expected nonzero output token estimate")
	}
}

func TestUpstageDocumentParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != upstageParsePath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "document-parse" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("ocr"); got != "auto" {
			t.Errorf("ocr = %q", got)
		}
		if got := r.FormValue("output_formats"); got != `["text"]` {
			t.Errorf("output_formats = %q", got)
		}
		if _, _, err := r.FormFile("document"); err != nil {
			t.Errorf("document file: %v", err)
		}

		resp := map[string]any{
			"elements": []map[string]any{
				{"category": "paragraph", "content": map[string]any{"text": "2024년 3월 5일"}},
				{"category": "table", "content": map[string]any{"text": "COMMISSION ₩327,440 ₩32,744 US$222.34"}},
			},
			"content": map[string]any{"text": "flat"},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewUpstageClient(UpstageConfig{APIKey: "test-key", BaseURL: srv.URL})
	res, err := c.Extract(context.Background(), testPage(), "document-parse")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Raw["date"] != "2024-03-05" {
		t.Errorf("date = %v", res.Raw["date"])
	}
	if res.Raw["commissionUSD"] != 222.34 {
		t.Errorf("commissionUSD = %v", res.Raw["commissionUSD"])
	}
}

func TestUpstageProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	}))
	defer srv.Close()

	c := NewUpstageClient(UpstageConfig{APIKey: "bad-key", BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), testPage(), "solar-pro")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.Kind != KindProvider || perr.Status != http.StatusUnauthorized {
		t.Errorf("kind=%s status=%d", perr.Kind, perr.Status)
	}
}

func TestUpstageParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"content": "no json here"},
			}},
		})
	}))
	defer srv.Close()

	c := NewUpstageClient(UpstageConfig{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.Extract(context.Background(), testPage(), "solar-pro")

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.Kind != KindParse {
		t.Errorf("kind = %s, want %s", perr.Kind, KindParse)
	}
}

func TestUpstageConfigErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		c := NewUpstageClient(UpstageConfig{})
		_, err := c.Extract(context.Background(), testPage(), "solar-pro")
		var perr *Error
		if !errors.As(err, &perr) || perr.Kind != KindConfig {
			t.Fatalf("expected config error, got %v", err)
		}
	})
	t.Run("unknown model", func(t *testing.T) {
		c := NewUpstageClient(UpstageConfig{APIKey: "k"})
		_, err := c.Extract(context.Background(), testPage(), "solar-mega")
		var perr *Error
		if !errors.As(err, &perr) || perr.Kind != KindConfig {
			t.Fatalf("expected config error, got %v", err)
		}
	})
}
