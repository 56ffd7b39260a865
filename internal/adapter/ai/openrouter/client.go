// Package openrouter implements the chat-completion port against an
// OpenAI-compatible endpoint (OpenRouter by default).
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/prediction-validator/internal/config"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// Client implements domain.ChatClient. Safe for concurrent use; all workers
// share one instance.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// New constructs a Client from config with an instrumented HTTP transport.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.OpenRouterBaseURL,
		apiKey:  cfg.OpenRouterAPIKey,
		hc: &http.Client{
			Timeout:   120 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete issues one chat completion and returns the reply content plus
// token usage. There is no retry here: a failed call fails the whole
// validation by design.
func (c *Client) Complete(ctx domain.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	body := chatCompletionRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("op=chat.encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("op=chat.request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ChatResponse{}, fmt.Errorf("op=chat.complete: %w", domain.ErrUpstreamTimeout)
		}
		return domain.ChatResponse{}, fmt.Errorf("op=chat.complete: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.ChatResponse{}, fmt.Errorf("op=chat.complete: %w", domain.ErrUpstreamRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("chat completion failed",
			slog.Int("status", resp.StatusCode),
			slog.String("model", req.Model),
			slog.String("body", string(snippet)))
		return domain.ChatResponse{}, fmt.Errorf("op=chat.complete: status %d: %w", resp.StatusCode, domain.ErrInternal)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("op=chat.decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("op=chat.decode: empty choices: %w", domain.ErrInternal)
	}

	out := domain.ChatResponse{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}
	// Some providers omit usage; fall back to a local estimate so the cost
	// tracker never under-counts to zero.
	if out.InputTokens == 0 && out.OutputTokens == 0 {
		out.InputTokens = c.countTokens(req.System) + c.countTokens(req.User)
		out.OutputTokens = c.countTokens(out.Content)
	}
	return out, nil
}

func (c *Client) countTokens(s string) int {
	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, falling back to rough estimate", slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return len(s) / 4
	}
	return len(c.enc.Encode(s, nil, nil))
}
