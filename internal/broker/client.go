package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/tradeforge/propdesk/internal/apperrors"
)

const (
	loginPath      = "/rest/auth/angelbroking/user/v1/loginByPassword"
	quotePath      = "/rest/secure/angelbroking/market/v1/quote"
	historicalPath = "/rest/secure/angelbroking/historical/v1/getCandleData"
	searchPath     = "/rest/secure/angelbroking/order/v1/searchScrip"

	// Broker tokens rotate daily; refresh well before that.
	sessionTTL = 8 * time.Hour
)

// Client is the HTTP client for the live broker API. Secure endpoints
// return the raw (status, body) pair so callers can run Classify and
// apply their own retry/fallback policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new broker API client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "broker-client").Logger(),
	}
}

// Login performs the password+TOTP login and returns a fresh session.
// A login the broker rejects yields a BrokerAuthError and nothing is
// cached.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	code, err := totp.GenerateCode(creds.TotpSecret, time.Now())
	if err != nil {
		return nil, apperrors.NewBrokerAuthError("", "failed to generate totp", err)
	}

	payload := loginRequest{
		ClientCode: creds.ClientCode,
		Password:   creds.MPin,
		TOTP:       code,
	}

	status, body, err := c.post(ctx, loginPath, creds.APIKey, "", payload)
	if err != nil {
		return nil, apperrors.NewBrokerAuthError("", "login request failed", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewBrokerAuthError("", "malformed login response", err)
	}

	if status < 200 || status > 299 || !resp.Status || resp.Data.JwtToken == "" {
		return nil, apperrors.NewBrokerAuthError(resp.ErrorCode, resp.Message, nil)
	}

	c.log.Info().Str("client_code", creds.ClientCode).Msg("Broker login succeeded")

	return &Session{
		APIKey:         creds.APIKey,
		ClientCode:     creds.ClientCode,
		JwtToken:       resp.Data.JwtToken,
		RefreshToken:   resp.Data.RefreshToken,
		FeedToken:      resp.Data.FeedToken,
		TokenExpiresAt: time.Now().Add(sessionTTL),
	}, nil
}

// Quote requests full quotes for a set of exchange-token pairs.
func (c *Client) Quote(ctx context.Context, session *Session, exchangeTokens map[string][]string) (int, []byte, error) {
	payload := map[string]interface{}{
		"mode":           "FULL",
		"exchangeTokens": exchangeTokens,
	}
	return c.post(ctx, quotePath, session.APIKey, session.JwtToken, payload)
}

// Candles requests historical candle data.
func (c *Client) Candles(ctx context.Context, session *Session, req HistoricalRequest) (int, []byte, error) {
	return c.post(ctx, historicalPath, session.APIKey, session.JwtToken, req)
}

// SearchScrip searches the instrument master.
func (c *Client) SearchScrip(ctx context.Context, session *Session, req SearchRequest) (int, []byte, error) {
	return c.post(ctx, searchPath, session.APIKey, session.JwtToken, req)
}

func (c *Client) post(ctx context.Context, path, apiKey, jwtToken string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", apiKey)
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	if jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+jwtToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("broker request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read broker response: %w", err)
	}

	return resp.StatusCode, body, nil
}
