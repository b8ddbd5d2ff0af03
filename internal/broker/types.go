// Package broker owns the live broker integration: the authenticated
// session cache, the HTTP client and the response classifier.
package broker

import "time"

// Credentials are the stored broker login secrets. They come from the
// secret provider and are never persisted by this package.
type Credentials struct {
	APIKey     string
	ClientCode string
	MPin       string
	TotpSecret string
}

// Session is the cached broker authentication state. It lives in
// process memory only, with lazy refresh; it is never tied to a
// single request.
type Session struct {
	APIKey         string
	ClientCode     string
	JwtToken       string
	RefreshToken   string
	FeedToken      string
	TokenExpiresAt time.Time
}

// Valid reports whether the session can still be used at the given time.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.JwtToken != "" && now.Before(s.TokenExpiresAt)
}

// loginRequest is the broker login payload.
type loginRequest struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	TOTP       string `json:"totp"`
}

// loginResponse is the broker login envelope.
type loginResponse struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorcode"`
	Data      struct {
		JwtToken     string `json:"jwtToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	} `json:"data"`
}

// HistoricalRequest describes a candle query against the broker.
type HistoricalRequest struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symboltoken"`
	Interval    string `json:"interval"`
	FromDate    string `json:"fromdate"`
	ToDate      string `json:"todate"`
}

// SearchRequest describes an instrument search against the broker.
type SearchRequest struct {
	Exchange    string `json:"exchange"`
	SearchScrip string `json:"searchscrip"`
}
