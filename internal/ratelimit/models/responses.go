package models

type RateLimitExceededResponse struct {
	Error      string `json:"error"` // "RATE_LIMIT_EXCEEDED"
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
