package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultDetail      = "high"
)

// Config captures the runtime settings required to talk to the vision model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Detail         string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible vision chat completion API. Each request
// is a single attempt; compose a retry policy around AnalyzePhoto.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a vision client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Detail:         strings.TrimSpace(cfg.Detail),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Detail == "" {
		client.cfg.Detail = defaultDetail
	}
	return client
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzePhoto sends one photo for analysis and parses the structured result.
// The mime type must be an image type ("image/jpeg", "image/png").
func (c *Client) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (model.PhotoAnalysis, error) {
	var empty model.PhotoAnalysis
	if len(imageData) == 0 {
		return empty, services.Wrap(services.ErrValidation, "", "vision analyze", "image data required", nil)
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "", "vision analyze", "api key required", nil)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: analysisUserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: c.cfg.Detail}},
			}},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := c.sendOnce(ctx, payload)
	if err != nil {
		return empty, err
	}

	var analysis model.PhotoAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return empty, services.Wrap(services.ErrTransient, "", "vision analyze", "parse payload", err)
	}
	analysis.SceneType = normalizeSceneType(analysis.SceneType)
	return analysis, nil
}

// HealthCheck verifies the endpoint and API key are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "", "vision health", "api key required", nil)
	}
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	content, err := c.sendOnce(ctx, payload)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return fmt.Errorf("vision health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("vision health: unexpected response")
	}
	return nil
}

func (c *Client) sendOnce(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("vision request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return "", fmt.Errorf("vision request: %w", &services.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter,
		})
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("vision request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("vision request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", services.Wrap(services.ErrTransient, "", "vision request", "empty choices", nil)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		refusal := strings.TrimSpace(completion.Choices[0].Message.Refusal)
		if refusal != "" {
			return "", services.Wrap(services.ErrPermanent, "", "vision request", "model refused: "+refusal, nil)
		}
		return "", services.Wrap(services.ErrTransient, "", "vision request", "empty content", nil)
	}
	return content, nil
}

func normalizeSceneType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case model.SceneFlipchart:
		return model.SceneFlipchart
	case model.SceneGroup:
		return model.SceneGroup
	case model.SceneActivity:
		return model.SceneActivity
	case model.SceneResult:
		return model.SceneResult
	default:
		return model.SceneUnknown
	}
}
