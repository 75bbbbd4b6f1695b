package retry

import (
	"errors"
	"strings"

	"github.com/google/go-github/v68/github"
)

// RetryableHTTPStatus reports whether an HTTP status code from a forge or
// LLM call should be retried: 403, 429, or any 5xx.
func RetryableHTTPStatus(status int) bool {
	return status == 403 || status == 429 || status >= 500
}

// RetryableGitHubError reports whether err, as returned by go-github, should
// be retried: a rate-limit/abuse-detection error, or an ErrorResponse
// carrying a retryable HTTP status. Errors that don't carry a go-github
// status (e.g. a fake FileFetcher in a test) are treated as non-retryable.
func RetryableGitHubError(err error) bool {
	if err == nil {
		return false
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return RetryableHTTPStatus(errResp.Response.StatusCode)
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	return false
}

// retryableCloudCodes are AWS error codes treated as transient regardless of
// HTTP status (some SDK calls surface these without an HTTP layer visible).
var retryableCloudCodes = []string{
	"Throttling",
	"ThrottlingException",
	"ServiceUnavailable",
	"InternalServerError",
	"InternalFailure",
	"TooManyRequestsException",
	"ProvisionedThroughputExceededException",
	"RequestLimitExceeded",
}

// RetryableCloudError reports whether err's message contains a known
// transient AWS error code.
func RetryableCloudError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, code := range retryableCloudCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
