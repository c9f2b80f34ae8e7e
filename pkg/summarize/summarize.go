// Package summarize asks an OpenAI-compatible endpoint for a short narrative
// about a finished scan. It is optional: callers treat any failure as the
// absence of a narrative.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultModel  = "gpt-4"
)

const promptPreamble = "You are a security analyst. Summarize the following scan report in a few short paragraphs: " +
	"call out the most urgent updates and vulnerabilities first, then any remaining hygiene issues. " +
	"Be concrete and avoid repeating the raw report.\n\n"

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a summarization client. Empty model and baseURL select the
// defaults; baseURL supports local OpenAI-compatible servers.
func NewClient(apiKey, model, baseURL string, logger *logrus.Logger) *Client {
	apiURL := defaultAPIURL
	if baseURL != "" {
		apiURL = baseURL + "/chat/completions"
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the rendered report text and returns the narrative.
func (c *Client) Summarize(ctx context.Context, reportText string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("summarizer API key is not set")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: promptPreamble + reportText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("summarizer returned status %d: %s", resp.StatusCode, payload)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("summarizer returned no content")
	}

	c.logger.WithField("model", c.model).Debug("Summarization finished")
	return parsed.Choices[0].Message.Content, nil
}
