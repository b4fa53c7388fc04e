package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"prospect/internal/config"
	"prospect/internal/logging"
)

// correctiveInstruction is appended on the single retry after a malformed
// reply.
const correctiveInstruction = "Your previous output was not valid JSON. Respond again with ONLY a valid JSON object matching the requested schema, no markdown fences, no commentary."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint with
// response_format json_object.
type HTTPClient struct {
	BaseURL string
	Model   string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient builds a client from config. The http.Client carries the
// configured timeout; timeouts surface as KindTimeout.
func NewHTTPClient(cfg config.LLM) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		Model:   cfg.Model,
		APIKey:  cfg.APIKey(),
		HTTP:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete implements Client. Malformed JSON gets one corrective retry.
func (c *HTTPClient) Complete(ctx context.Context, req Request, out any) error {
	content, err := c.chat(ctx, req, "")
	if err != nil {
		return err
	}
	if derr := DecodeJSON(content, out); derr != nil {
		logging.New("llm").Warn("malformed reply, retrying with corrective instruction",
			"schema", req.Schema, "error", derr)
		content, err = c.chat(ctx, req, correctiveInstruction)
		if err != nil {
			return err
		}
		if derr2 := DecodeJSON(content, out); derr2 != nil {
			return &Error{Kind: KindMalformed, Err: derr2}
		}
	}
	return nil
}

func (c *HTTPClient) chat(ctx context.Context, req Request, corrective string) (string, error) {
	msgs := make([]chatMessage, 0, 3)
	system := req.System
	if system == "" {
		system = "You are a strict JSON generator. Output only valid JSON."
	}
	msgs = append(msgs, chatMessage{Role: "system", Content: system})
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})
	if corrective != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: corrective})
	}

	body := chatRequest{
		Model:          c.Model,
		Messages:       msgs,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("new request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("chat %s: %s", resp.Status, string(raw))}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("decode response envelope: %w", err)}
	}
	if cr.Error != nil {
		return "", &Error{Kind: KindProvider, Err: fmt.Errorf("%s: %s", cr.Error.Type, cr.Error.Message)}
	}
	if len(cr.Choices) == 0 {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("empty choices")}
	}
	return cr.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
