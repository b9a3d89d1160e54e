package crossword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ModelWordsClient asks a chat-completions style model API for themed
// word/clue pairs.
type ModelWordsClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewModelWordsClient creates a ModelWordsClient.
func NewModelWordsClient(baseURL, apiKey, model string) *ModelWordsClient {
	return &ModelWordsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const wordsPrompt = `Generate %d crossword entries for the theme "%s".
Each answer must be a single English word of 2 to 5 letters. Respond
with JSON: {"words": [{"answer": "...", "clue": "..."}]}`

// ThemedWords requests count themed word/clue pairs from the model.
func (c *ModelWordsClient) ThemedWords(ctx context.Context, theme string, count int) ([]WordClue, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write short crossword clues."},
			{Role: "user", Content: fmt.Sprintf(wordsPrompt, count, theme)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal words request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build words request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("words request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("words request: model API returned %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode words response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("words response: no choices")
	}

	var parsed struct {
		Words []WordClue `json:"words"`
	}
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse words content: %w", err)
	}
	return parsed.Words, nil
}

var _ WordSource = (*ModelWordsClient)(nil)
