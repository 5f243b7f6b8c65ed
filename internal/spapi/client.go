package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
)

// regional endpoints by marketplace country code
var endpoints = map[string]string{
	"US": "https://sellingpartnerapi-na.amazon.com",
	"CA": "https://sellingpartnerapi-na.amazon.com",
	"MX": "https://sellingpartnerapi-na.amazon.com",
	"BR": "https://sellingpartnerapi-na.amazon.com",
	"GB": "https://sellingpartnerapi-eu.amazon.com",
	"DE": "https://sellingpartnerapi-eu.amazon.com",
	"FR": "https://sellingpartnerapi-eu.amazon.com",
	"IT": "https://sellingpartnerapi-eu.amazon.com",
	"ES": "https://sellingpartnerapi-eu.amazon.com",
	"IN": "https://sellingpartnerapi-eu.amazon.com",
	"AE": "https://sellingpartnerapi-eu.amazon.com",
	"JP": "https://sellingpartnerapi-fe.amazon.com",
	"AU": "https://sellingpartnerapi-fe.amazon.com",
	"SG": "https://sellingpartnerapi-fe.amazon.com",
}

const defaultEndpoint = "https://sellingpartnerapi-na.amazon.com"
const tokenPath = "/auth/o2/token"

// APIError is the typed error the seller API raises on failure. Only this
// error type is retried by the sync engine; anything else propagates as-is.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("seller API error %s: %s", e.Code, e.Description)
}

type Client struct {
	endpoint     string
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
	logger       *zap.Logger

	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a seller API client from the sync settings. The regional
// endpoint is derived from the settings' country code.
func NewClient(settings *domain.SyncSettings, logger *zap.Logger) *Client {
	endpoint, ok := endpoints[strings.ToUpper(settings.CountryCode)]
	if !ok {
		endpoint = defaultEndpoint
	}
	return NewClientWithEndpoint(endpoint, settings, logger)
}

// NewClientWithEndpoint creates a client against an explicit endpoint,
// used for the sandbox and in tests. Token requests go to the same host.
func NewClientWithEndpoint(endpoint string, settings *domain.SyncSettings, logger *zap.Logger) *Client {
	endpoint = strings.TrimSuffix(endpoint, "/")

	return &Client{
		endpoint:     endpoint,
		tokenURL:     endpoint + tokenPath,
		clientID:     settings.ClientID,
		clientSecret: settings.ClientSecret,
		refreshToken: settings.RefreshToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// ensureToken refreshes the LWA access token when missing or about to expire.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return nil
}

// get executes an authenticated GET against the seller API and decodes the
// response body into out. Non-2xx responses become a typed *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	reqURL := c.endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-amz-access-token", c.accessToken)

	c.logger.Debug("seller API request", zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// decodeAPIError maps a failed response onto the typed APIError. The seller
// API reports either {"error","error_description"} or an "errors" list with
// {"code","message"} entries; both collapse to code and description.
func decodeAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		return &apiErr
	}

	var wrapped struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Errors) > 0 {
		return &APIError{Code: wrapped.Errors[0].Code, Description: wrapped.Errors[0].Message}
	}

	return &APIError{
		Code:        http.StatusText(status),
		Description: fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(body))),
	}
}
