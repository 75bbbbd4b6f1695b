// Package ghauth issues short-lived GitHub App JWT assertions and exchanges
// them for installation access tokens.
package ghauth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// AppIdentity is the JSON payload stored in the app-identity secret.
type AppIdentity struct {
	AppID                string `json:"app_id"`
	DefaultInstallationID int64 `json:"installation_id"`
}

// Auth mints app JWTs and exchanges them for installation tokens.
type Auth struct {
	Identity   AppIdentity
	PrivateKey *rsa.PrivateKey
	HTTPClient *http.Client
	BaseURL    string // defaults to https://api.github.com
}

func (a *Auth) baseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return "https://api.github.com"
}

// CreateAppJWT mints an RS256-signed assertion with iat=now-60s, exp=now+540s.
func (a *Auth) CreateAppJWT(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    a.Identity.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(540 * time.Second)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(a.PrivateKey)
}

type installationTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetInstallationToken exchanges the app JWT for an installation token.
// installationIDOverride, when non-zero, takes precedence over the
// configured default installation id (the webhook-supplied-id override
// flow from spec §4.3).
func (a *Auth) GetInstallationToken(ctx context.Context, installationIDOverride int64) (string, error) {
	installationID := a.Identity.DefaultInstallationID
	if installationIDOverride != 0 {
		installationID = installationIDOverride
	}

	appJWT, err := a.CreateAppJWT(time.Now())
	if err != nil {
		return "", fmt.Errorf("mint app jwt: %w", err)
	}

	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", a.baseURL(), installationID)

	resp, err := retry.Call(ctx, "ghauth.get_installation_token", retry.DefaultConfig(),
		func(ctx context.Context) (*installationTokenResponse, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+appJWT)
			req.Header.Set("Accept", "application/vnd.github+json")
			req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

			httpClient := a.HTTPClient
			if httpClient == nil {
				httpClient = http.DefaultClient
			}
			r, err := httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer r.Body.Close()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				return nil, err
			}
			if !retry.RetryableHTTPStatus(r.StatusCode) && r.StatusCode >= 300 {
				return nil, fmt.Errorf("installation token exchange failed: status %d: %s", r.StatusCode, string(body))
			}
			if retry.RetryableHTTPStatus(r.StatusCode) && r.StatusCode >= 300 {
				return nil, retryableStatusError{status: r.StatusCode, body: string(body)}
			}

			var out installationTokenResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
		func(err error) bool {
			var rse retryableStatusError
			return asRetryableStatusError(err, &rse)
		},
		nil,
	)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

type retryableStatusError struct {
	status int
	body   string
}

func (e retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d: %s", e.status, e.body)
}

func asRetryableStatusError(err error, target *retryableStatusError) bool {
	rse, ok := err.(retryableStatusError)
	if ok {
		*target = rse
	}
	return ok
}
