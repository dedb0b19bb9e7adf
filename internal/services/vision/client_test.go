package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/services"
)

func analysisResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
}

func TestClientAnalyzePhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		content := `{"scene_type":"flipchart","description":"Flipchart mit Roadmap","ocr_text":"Q3 Ziele","topic_keywords":["Roadmap"],"crop_box":{"x_min":0.1,"y_min":0.1,"x_max":0.9,"y_max":0.9}}`
		if err := json.NewEncoder(w).Encode(analysisResponse(content)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "demo-vision"})
	analysis, err := client.AnalyzePhoto(context.Background(), []byte("fake-jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("AnalyzePhoto: %v", err)
	}
	if analysis.SceneType != model.SceneFlipchart {
		t.Fatalf("SceneType = %q, want flipchart", analysis.SceneType)
	}
	if analysis.OCRText != "Q3 Ziele" {
		t.Fatalf("OCRText = %q", analysis.OCRText)
	}
	if analysis.CropBox == nil || analysis.CropBox.XMax != 0.9 {
		t.Fatalf("CropBox = %+v", analysis.CropBox)
	}
}

func TestClientAnalyzePhotoNormalizesSceneType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `{"scene_type":"Selfie","description":"x"}`
		_ = json.NewEncoder(w).Encode(analysisResponse(content))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	analysis, err := client.AnalyzePhoto(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("AnalyzePhoto: %v", err)
	}
	if analysis.SceneType != model.SceneUnknown {
		t.Fatalf("SceneType = %q, want unknown", analysis.SceneType)
	}
}

func TestClientAnalyzePhotoRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.AnalyzePhoto(context.Background(), []byte("img"), "image/jpeg")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	var statusErr *services.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want HTTPStatusError", err)
	}
	if statusErr.RetryAfter.Seconds() != 3 {
		t.Fatalf("RetryAfter = %v, want 3s", statusErr.RetryAfter)
	}
	if !services.IsTransient(err) {
		t.Fatal("429 not classified as transient")
	}
}

func TestClientAnalyzePhotoUnauthorizedIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "m"})
	_, err := client.AnalyzePhoto(context.Background(), []byte("img"), "image/jpeg")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if services.IsTransient(err) {
		t.Fatal("401 classified as transient")
	}
}

func TestClientAnalyzePhotoRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	_, err := client.AnalyzePhoto(context.Background(), []byte("img"), "image/jpeg")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(analysisResponse(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
