package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

// mistralServer answers /ocr with pages and captures the request.
func mistralServer(t *testing.T, pages []mistralOCRPage, got *mistralOCRRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization: %s", auth)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mistralOCRResponse{Model: MistralOCRModel, Pages: pages})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMistralOCRClient_ProcessImage(t *testing.T) {
	t.Run("successful OCR", func(t *testing.T) {
		var req mistralOCRRequest
		page := mistralOCRPage{Index: 0, Markdown: "Government Gazette\n\nVol. 719 23 2025 No. 52724"}
		page.Dimensions.DPI = 300
		server := mistralServer(t, []mistralOCRPage{page}, &req)

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.ProcessImage(context.Background(), []byte("fake image data"), 1)
		if err != nil {
			t.Fatalf("ProcessImage() error = %v", err)
		}
		if !result.Success || result.Text != page.Markdown {
			t.Errorf("unexpected result: %+v", result)
		}
		if result.CostUSD != MistralOCRCostPerPage {
			t.Errorf("CostUSD = %f, want %f", result.CostUSD, MistralOCRCostPerPage)
		}
		if result.Metadata["dpi"] != 300 {
			t.Errorf("dpi = %v", result.Metadata["dpi"])
		}
		if req.Document.Type != "image_url" || !strings.HasPrefix(req.Document.ImageURL, "data:image/png;base64,") {
			t.Errorf("unexpected document: %+v", req.Document)
		}
		if len(req.Pages) != 0 {
			t.Errorf("image request should not select pages: %v", req.Pages)
		}
	})

	t.Run("empty pages response", func(t *testing.T) {
		server := mistralServer(t, []mistralOCRPage{}, nil)
		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})

		result, err := client.ProcessImage(context.Background(), []byte("fake"), 1)
		if err == nil {
			t.Error("expected error for empty pages")
		}
		if result.Success || result.ErrorMessage == "" {
			t.Errorf("expected failed result with message, got %+v", result)
		}
	})

	t.Run("API error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Invalid image format"},
			})
		}))
		defer server.Close()

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		result, err := client.ProcessImage(context.Background(), []byte("fake"), 1)

		var se *StatusError
		if !errors.As(err, &se) || se.Body != "Invalid image format" {
			t.Errorf("expected StatusError with API message, got %v", err)
		}
		if IsRetryable(err) {
			t.Error("400 should not be retryable")
		}
		if result.Success {
			t.Error("expected Success = false")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		_, err := client.ProcessImage(context.Background(), []byte("fake"), 1)
		rle, ok := IsRateLimitError(err)
		if !ok {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rle.RetryAfter != 2*time.Second {
			t.Errorf("RetryAfter = %v, want 2s", rle.RetryAfter)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := mistralServer(t, nil, nil)
		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := client.ProcessImage(ctx, []byte("fake"), 1)
		if err == nil {
			t.Error("expected error from cancelled context")
		}
		if result.Success {
			t.Error("expected Success = false")
		}
	})
}

func TestMistralOCRClient_ProcessDocument(t *testing.T) {
	t.Run("pages in order", func(t *testing.T) {
		var req mistralOCRRequest
		server := mistralServer(t, []mistralOCRPage{
			{Index: 2, Markdown: "page three"},
			{Index: 0, Markdown: "CONTENTS"},
		}, &req)

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		pages, err := client.ProcessDocument(context.Background(), []byte("%PDF-1.7"), 3)
		if err != nil {
			t.Fatalf("ProcessDocument() error = %v", err)
		}
		want := []string{"CONTENTS", "", "page three"}
		if len(pages) != len(want) {
			t.Fatalf("expected %d pages, got %d", len(want), len(pages))
		}
		for i := range want {
			if pages[i] != want[i] {
				t.Errorf("page %d = %q, want %q", i+1, pages[i], want[i])
			}
		}
		if req.Document.Type != "document_url" || !strings.HasPrefix(req.Document.DocumentURL, "data:application/pdf;base64,") {
			t.Errorf("unexpected document: %+v", req.Document)
		}
		if len(req.Pages) != 3 || req.Pages[0] != 0 || req.Pages[2] != 2 {
			t.Errorf("expected zero-based pages 0..2, got %v", req.Pages)
		}
	})

	t.Run("no pages", func(t *testing.T) {
		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key"})
		if _, err := client.ProcessDocument(context.Background(), []byte("%PDF"), 0); err == nil {
			t.Error("expected error for zero pages")
		}
	})

	t.Run("empty response", func(t *testing.T) {
		server := mistralServer(t, nil, nil)
		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		if _, err := client.ProcessDocument(context.Background(), []byte("%PDF"), 2); err == nil {
			t.Error("expected error for empty response")
		}
	})
}

// TestMistralOCRIntegration runs real OCR against the Mistral API.
// Requires MISTRAL_API_KEY and BULLETIN_TEST_GAZETTE (path to a gazette PDF).
func TestMistralOCRIntegration(t *testing.T) {
	cfg := loadLiveKeys()
	if !cfg.HasMistral() {
		t.Skip("MISTRAL_API_KEY not set - skipping integration test")
	}
	path := os.Getenv("BULLETIN_TEST_GAZETTE")
	if path == "" {
		t.Skip("BULLETIN_TEST_GAZETTE not set - skipping integration test")
	}
	pdf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read gazette: %v", err)
	}

	client := NewMistralOCRClient(MistralOCRConfig{APIKey: cfg.MistralAPIKey})
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pages, err := client.ProcessDocument(ctx, pdf, 2)
	if err != nil {
		t.Fatalf("ProcessDocument() error = %v", err)
	}
	if strings.TrimSpace(pages[0]) == "" {
		t.Error("expected text on the first page")
	}
	t.Logf("first page: %d chars", len(pages[0]))
}
