package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	emptyReply  = "No response generated."
	temperature = 0.5
)

// Completer sends one prompt to a provider and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFactory builds a client for a provider config.
type CompleterFactory func(provider Provider, apiKey, model string) (Completer, error)

// HTTPCompleters returns a factory whose clients share one http.Client.
func HTTPCompleters(timeout time.Duration) CompleterFactory {
	client := &http.Client{Timeout: timeout}
	return func(provider Provider, apiKey, model string) (Completer, error) {
		if model == "" {
			model = provider.DefaultModel()
		}
		switch provider {
		case ProviderGroq:
			return &ChatClient{HTTP: client, BaseURL: groqBaseURL, APIKey: apiKey, Model: model}, nil
		case ProviderOpenAI:
			return &ChatClient{HTTP: client, BaseURL: openAIBaseURL, APIKey: apiKey, Model: model}, nil
		case ProviderGemini:
			return &GeminiClient{HTTP: client, BaseURL: geminiBaseURL, APIKey: apiKey, Model: model}, nil
		default:
			return nil, fmt.Errorf("assistant: unsupported provider %q", provider)
		}
	}
}

// ChatClient speaks the OpenAI chat completions protocol, which Groq also
// implements.
type ChatClient struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Completer.
func (c *ChatClient) Complete(ctx context.Context, p Prompt) (string, error) {
	body := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: temperature,
	}
	var out chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	if err := postJSON(ctx, c.HTTP, strings.TrimRight(c.BaseURL, "/")+"/chat/completions", headers, body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return emptyReply, nil
	}
	return out.Choices[0].Message.Content, nil
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete implements Completer.
func (c *GeminiClient) Complete(ctx context.Context, p Prompt) (string, error) {
	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{
		{Text: p.System},
		{Text: "\n\nUser Question: " + p.User},
	}}}}
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.BaseURL, "/"), c.Model)
	var out geminiResponse
	if err := postJSON(ctx, c.HTTP, url, map[string]string{"x-goog-api-key": c.APIKey}, body, &out); err != nil {
		return "", err
	}
	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, part := range out.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return emptyReply, nil
	}
	return b.String(), nil
}

// ProviderError carries a non-2xx provider response.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("assistant: provider returned %d: %s", e.Status, e.Body)
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("assistant: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("assistant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("assistant: call provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assistant: decode response: %w", err)
	}
	return nil
}
