package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coursemind/internal/logging"
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:      apiKey,
		BaseURL:     "https://api.anthropic.com/v1",
		Model:       "claude-sonnet-4-20250514",
		MaxTokens:   800,
		Temperature: 0,
		Timeout:     2 * time.Minute,
	}
}

// AnthropicClient implements Client against the Anthropic messages API.
type AnthropicClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewAnthropicClient creates a client with default configuration.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return NewAnthropicClientWithConfig(DefaultAnthropicConfig(apiKey))
}

// NewAnthropicClientWithConfig creates a client with custom configuration.
func NewAnthropicClientWithConfig(config AnthropicConfig) *AnthropicClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 800
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &AnthropicClient{
		apiKey:      config.APIKey,
		baseURL:     config.BaseURL,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient:  &http.Client{Timeout: config.Timeout},
	}
}

// SetModel changes the model used for completions.
func (c *AnthropicClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

type anthropicRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *toolChoice      `json:"tool_choice,omitempty"`
	Temperature float64          `json:"temperature"`
}

type toolChoice struct {
	Type string `json:"type"` // "auto"
}

type anthropicResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Converse sends the full transcript (and optional tool definitions) and
// returns the model's reply. When tools are supplied, tool choice is "auto":
// the model decides whether to invoke any of them.
func (c *AnthropicClient) Converse(ctx context.Context, system string, messages []Message, tools []ToolDefinition) (*Response, error) {
	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.LLMDebug("[Anthropic] Converse: model=%s messages=%d tools=%d", c.model, len(messages), len(tools))

	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.temperature,
	}
	if len(tools) > 0 {
		reqBody.ToolChoice = &toolChoice{Type: "auto"}
	}

	// Retry transient failures; API-level errors propagate immediately.
	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			logging.LLMError("[Anthropic] Converse: API returned status %d", resp.StatusCode)
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var apiResp anthropicResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if apiResp.Error != nil {
			logging.LLMError("[Anthropic] Converse: API error: %s", apiResp.Error.Message)
			return nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
		}

		result := &Response{
			Content:    apiResp.Content,
			StopReason: apiResp.StopReason,
			Usage:      apiResp.Usage,
		}

		logging.LLM("[Anthropic] Converse: completed in %v stop_reason=%s blocks=%d",
			time.Since(startTime), result.StopReason, len(result.Content))
		return result, nil
	}

	logging.LLMError("[Anthropic] Converse: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
