package broker

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Outcome is the normalized classification of a broker response.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSessionExpired
	OutcomeUpstreamError
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeSessionExpired:
		return "SESSION_EXPIRED"
	case OutcomeUpstreamError:
		return "UPSTREAM_ERROR"
	case OutcomeMalformed:
		return "MALFORMED"
	}
	return "UNKNOWN"
}

// Error codes the broker uses to report an expired or invalid token.
// Compared case-insensitively.
var sessionExpiryCodes = map[string]bool{
	"ag8001": true,
	"ag8002": true,
	"ag8003": true,
}

// envelope captures the loosely-typed status fields broker responses
// carry. Some endpoints use "status", others "success".
type envelope struct {
	Status    *bool  `json:"status"`
	Success   *bool  `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorcode"`
}

// Classify maps a broker (httpStatus, body) pair to an Outcome. It is
// pure: no network, no state. A body that fails to parse is Malformed
// rather than SessionExpired, since a fresh session would not fix
// malformed output.
func Classify(httpStatus int, body []byte) Outcome {
	if httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden {
		return OutcomeSessionExpired
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return OutcomeMalformed
	}

	failed := (env.Status != nil && !*env.Status) || (env.Success != nil && !*env.Success)
	if failed {
		if sessionExpiryCodes[strings.ToLower(env.ErrorCode)] {
			return OutcomeSessionExpired
		}
		return OutcomeUpstreamError
	}

	if httpStatus < 200 || httpStatus > 299 {
		return OutcomeUpstreamError
	}
	return OutcomeOK
}
