package fallback

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"
)

type signature struct {
	code     string
	patterns []string
}

// Order matters: quota wording often comes with a 429 status.
var signatures = []signature{
	{apperr.CodeQuotaExceeded, []string{"quota", "resource_exhausted", "insufficient_quota", "billing"}},
	{apperr.CodeRateLimited, []string{"429", "rate limit", "rate_limit", "ratelimit", "too many requests"}},
	{apperr.CodeServiceUnavailable, []string{"503", "service unavailable", "overloaded", "unavailable", "502", "bad gateway"}},
	{apperr.CodeInvalidCredentials, []string{"401", "403", "invalid api key", "invalid_api_key", "unauthorized", "permission denied"}},
}

// Classify maps an AI-call error to an apperr code and reports whether it
// should trip the quota flag. Only quota, rate-limit and availability
// signatures trip it; bad credentials need an operator, not a cooldown.
func Classify(err error) (code string, trips bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.CodeUpstream, false
	}

	text := strings.ToLower(err.Error())

	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests:
			if matches(text, signatures[0].patterns) {
				return apperr.CodeQuotaExceeded, true
			}
			return apperr.CodeRateLimited, true
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			return apperr.CodeServiceUnavailable, true
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.CodeInvalidCredentials, false
		}
	}

	for _, sig := range signatures {
		if matches(text, sig.patterns) {
			return sig.code, sig.code != apperr.CodeInvalidCredentials
		}
	}
	return apperr.CodeUpstream, false
}

func matches(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
