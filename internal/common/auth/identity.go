// internal/common/auth/identity.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"edunet-workers/internal/common/errors"
	commonhttp "edunet-workers/internal/common/http"
)

// IdentityClient talks to the platform identity service for account
// lookups and service-to-service authentication.
type IdentityClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *commonhttp.Client
	accessToken  string
	tokenExpiry  time.Time

	pollInterval time.Duration
	readyTimeout time.Duration
}

// Account is a platform account as the identity service reports it.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`
}

// TokenResponse holds the response from the identity token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// NewIdentityClient creates a new identity service client. pollInterval
// and readyTimeout bound the startup readiness wait.
func NewIdentityClient(baseURL, clientID, clientSecret string, pollInterval, readyTimeout time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   commonhttp.NewClient(30 * time.Second),
		pollInterval: pollInterval,
		readyTimeout: readyTimeout,
	}
}

// WaitReady polls the identity service health endpoint until it
// responds or the bounded timeout elapses. Returns false when the
// service never became ready; callers then proceed in guest mode
// instead of blocking startup.
func (c *IdentityClient) WaitReady(ctx context.Context) bool {
	deadline := time.Now().Add(c.readyTimeout)
	for {
		if c.ready(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return false
		}
	}
}

func (c *IdentityClient) ready(ctx context.Context) bool {
	req, err := http.NewRequest("GET", c.baseURL+"/health/ready", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// getAccessToken fetches a token via the client-credentials flow and
// caches it until expiry.
func (c *IdentityClient) getAccessToken(ctx context.Context) error {
	if c.tokenExpiry.After(time.Now()) && c.accessToken != "" {
		return nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequest("POST", c.baseURL+"/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("identity token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return nil
}

// GetAccount retrieves an account by its unique ID. The notification
// worker uses this to resolve recipient contact details.
func (c *IdentityClient) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if err := c.getAccessToken(ctx); err != nil {
		return nil, &errors.StandardError{
			Code:      "IDENTITY_AUTH_ERROR",
			Message:   "Failed to authenticate with identity service",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(accountID)), nil)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create account request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send account request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &errors.StandardError{
			Code:      "ACCOUNT_NOT_FOUND",
			Message:   "Account not found",
			Details:   fmt.Sprintf("accountId: %s", accountID),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      "IDENTITY_API_ERROR",
			Message:   "Identity service error during account retrieval",
			Details:   string(body),
			Retryable: isTransientHTTPError(resp.StatusCode),
			Timestamp: time.Now().UTC(),
		}
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode account details",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	return &account, nil
}

// ValidateToken checks an access token via the introspection endpoint.
func (c *IdentityClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequest("POST", c.baseURL+"/oauth/introspect", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create introspection request",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send introspection request",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	}
	defer resp.Body.Close()

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode introspection response",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	if !tokenInfo.Active {
		return nil, &errors.StandardError{
			Code:      "TOKEN_INVALID",
			Message:   "Token is not active",
			Details:   "The provided access token is expired, revoked or malformed.",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	return &tokenInfo, nil
}

// isTransientHTTPError returns true if the status code indicates a
// potentially transient error.
func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// TokenInfo holds the introspection endpoint response.
type TokenInfo struct {
	Active    bool     `json:"active"`
	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Iat       int64    `json:"iat,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Aud       []string `json:"aud,omitempty"`
	Iss       string   `json:"iss,omitempty"`
}
