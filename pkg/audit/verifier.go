package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const leakCheckPrompt = `You are a Privacy Security Auditor. Your job is to find any UNREDACTED
Personally Identifiable Information (PII) in the text below.
PII includes: Names, Emails, SSNs, Phone Numbers, or ID numbers.
Ignore placeholders of the form [REDACTED_...]; those are already handled.

Text to check: %q

Return ONLY a JSON object with:
"leaked": true/false,
"reason": "explanation of what was missed"`

// VerifierConfig configures the HTTP leak verifier.
type VerifierConfig struct {
	// BaseURL of an OpenAI-compatible completion API
	// (e.g. http://ollama:11434/v1 for a local model).
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// HTTPVerifier calls an LLM through an OpenAI-compatible chat-completions
// endpoint and returns the model's raw payload. It implements
// domain.Verifier; verdict parsing stays with the worker.
type HTTPVerifier struct {
	cfg        VerifierConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPVerifier constructs a verifier client with an instrumented transport.
func NewHTTPVerifier(cfg VerifierConfig, logger *slog.Logger) *HTTPVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "phi3"
	}

	return &HTTPVerifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("component", "audit.verifier"),
	}
}

// Check submits the redacted text for a leak verdict. Only redacted text ever
// crosses this boundary; raw originals never leave the vault.
func (v *HTTPVerifier) Check(ctx context.Context, redactedText string) (string, error) {
	payload := map[string]any{
		"model": v.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf(leakCheckPrompt, redactedText)},
		},
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal verifier request: %w", err)
	}

	url := strings.TrimRight(v.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if v.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.cfg.APIKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verifier request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			v.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("verifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode verifier response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("verifier returned no completion choices")
	}

	return completion.Choices[0].Message.Content, nil
}
