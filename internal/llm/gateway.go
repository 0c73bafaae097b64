package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const gatewayPath = "/api/ai/generate"

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Body)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

// GatewayConfig configures the internal AI gateway completer.
type GatewayConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// GatewayCompleter posts prompts to an AI gateway exposing /api/ai/generate.
type GatewayCompleter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGatewayCompleter(cfg GatewayConfig) (*GatewayCompleter, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &GatewayCompleter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

type gatewayRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type gatewayResponse struct {
	Text string `json:"text"`
}

func (g *GatewayCompleter) Generate(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(gatewayRequest{Prompt: prompt, Model: model, ResponseFormat: "json"})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+gatewayPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	return out.Text, nil
}
