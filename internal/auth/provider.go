package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProviderClient verifies bearer tokens against the external identity
// provider's user endpoint.
type ProviderClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProviderClient creates a ProviderClient for the given provider base URL.
func NewProviderClient(baseURL, apiKey string) *ProviderClient {
	return &ProviderClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type providerUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

// Verify asks the provider who the token belongs to. Credential
// validation errors are not distinguished from provider-unavailability
// errors; both surface as ErrInvalidToken.
func (c *ProviderClient) Verify(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, ErrInvalidToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var u providerUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil || u.ID == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{UserID: u.ID, Username: u.UserMetadata.Username, Email: u.Email}, nil
}

var _ TokenVerifier = (*ProviderClient)(nil)

// String identifies the verifier in startup logs.
func (c *ProviderClient) String() string {
	return fmt.Sprintf("provider(%s)", c.baseURL)
}
