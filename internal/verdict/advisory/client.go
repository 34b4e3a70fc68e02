package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"quorum/internal/signal"
)

// StructuredVerdict is the schema-checked advisory output.
type StructuredVerdict struct {
	Verdict    string   `json:"verdict"`
	Confidence int      `json:"confidence,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Assessor produces a second opinion on a composite result. Implementations
// must return within the ctx deadline or fail; there is no streaming.
type Assessor interface {
	Assess(ctx context.Context, result signal.CompositeResult) (StructuredVerdict, error)
}

const systemPrompt = `You are a risk reviewer for composite asset scores.
Given a scoring result, answer with a single JSON object:
{"verdict":"CONFIRM|DOWNSIZE|SKIP|WAIT","confidence":0-100,"reasons":["..."]}
CONFIRM only when both the score extreme and the data quality support acting.
Answer with JSON only, no prose.`

// ChatClient calls an OpenAI-compatible /chat/completions endpoint.
type ChatClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	return &ChatClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{},
	}
}

func (c *ChatClient) Assess(ctx context.Context, result signal.CompositeResult) (StructuredVerdict, error) {
	user, err := json.Marshal(result)
	if err != nil {
		return StructuredVerdict{}, err
	}
	content, err := c.chat(ctx, systemPrompt, string(user))
	if err != nil {
		return StructuredVerdict{}, err
	}
	return ParseStructuredVerdict(content)
}

func (c *ChatClient) chat(ctx context.Context, system, user string) (string, error) {
	url := strings.TrimRight(c.BaseURL, "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	// Tolerate configs that already include the full path.
	url = strings.TrimSuffix(url, "/chat/completions") + "/chat/completions"

	body, _ := json.Marshal(map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpc := c.Client
	if httpc == nil {
		httpc = &http.Client{}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var eresp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eresp)
		if eresp.Error.Message != "" {
			return "", fmt.Errorf("advisory status=%d: %s", resp.StatusCode, eresp.Error.Message)
		}
		return "", fmt.Errorf("advisory status=%d", resp.StatusCode)
	}
	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("advisory returned no choices")
	}
	return r.Choices[0].Message.Content, nil
}
