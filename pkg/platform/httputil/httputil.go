package httputil

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"time"

	dErrors "opsgate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(response)
}

// WithMeta returns a copy of payload stamped with the current UTC time under
// "last_updated". Every system endpoint responds through it.
func WithMeta(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	maps.Copy(out, payload)
	out["last_updated"] = time.Now().UTC().Format(time.RFC3339Nano)
	return out
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized, dErrors.CodeCredentialMissing, dErrors.CodeCredentialInvalid:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeBudgetExceeded:
		return http.StatusForbidden
	case dErrors.CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case dErrors.CodeKillSwitchActive:
		return http.StatusLocked
	case dErrors.CodeTelemetryUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout, dErrors.CodeBackendTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of
// JSON error bodies.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "NOT_FOUND"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "BAD_REQUEST"
	case dErrors.CodeValidation:
		return "VALIDATION_ERROR"
	case dErrors.CodeUnauthorized, dErrors.CodeCredentialMissing, dErrors.CodeCredentialInvalid:
		return "Unauthorized"
	case dErrors.CodeForbidden:
		return "FORBIDDEN"
	case dErrors.CodeBudgetExceeded:
		return "COST_GUARD_BLOCKED"
	case dErrors.CodeRateLimitExceeded:
		return "RATE_LIMIT_EXCEEDED"
	case dErrors.CodeKillSwitchActive:
		return "AI_KILL_SWITCH_ENABLED"
	case dErrors.CodeTelemetryUnavailable:
		return "TELEMETRY_UNAVAILABLE"
	case dErrors.CodeTimeout, dErrors.CodeBackendTimeout:
		return "BACKEND_TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}
