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

// LayoutServiceClient delegates word placement to the external layout
// service. The placement algorithm lives entirely on the other side.
type LayoutServiceClient struct {
	baseURL string
	client  *http.Client
}

// NewLayoutServiceClient creates a LayoutServiceClient.
func NewLayoutServiceClient(baseURL string) *LayoutServiceClient {
	return &LayoutServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Arrange sends the word list to the layout service.
func (c *LayoutServiceClient) Arrange(ctx context.Context, words []string) (*Layout, error) {
	reqBody, err := json.Marshal(map[string]any{"words": words})
	if err != nil {
		return nil, fmt.Errorf("marshal layout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/arrange", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build layout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("layout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layout request: service returned %d", resp.StatusCode)
	}

	var layout Layout
	if err := json.NewDecoder(resp.Body).Decode(&layout); err != nil {
		return nil, fmt.Errorf("decode layout response: %w", err)
	}
	if layout.Rows <= 0 || layout.Cols <= 0 {
		return nil, fmt.Errorf("layout response: invalid dimensions %dx%d", layout.Rows, layout.Cols)
	}
	return &layout, nil
}

var _ LayoutEngine = (*LayoutServiceClient)(nil)
