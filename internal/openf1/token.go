// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package openf1

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mclarke-dev/boxbox/internal/cache"
	"github.com/mclarke-dev/boxbox/internal/logging"
	"github.com/mclarke-dev/boxbox/internal/metrics"
)

// refreshSkew is how close to expiry a cached token may get before it is
// refreshed on the next use.
const refreshSkew = 60 * time.Second

// tokenEntry holds one cached bearer token with its absolute expiry.
type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// TokenCache exchanges credentials for bearer tokens and stores them per
// username in a no-expiry cache for the lifetime of the process. Entries
// are refreshed when absent or expiring within refreshSkew of now.
// Freshness is judged against the entry's own expiry instant, not the
// store's TTL, so the stubbed clock in tests stays authoritative.
//
// Concurrent callers for the same unexchanged username may each perform the
// exchange; the result is idempotent and the last write wins, so no
// in-flight deduplication is done.
type TokenCache struct {
	entries  *cache.Cache
	tokenURL string
	client   *http.Client

	// now is stubbed in tests.
	now func() time.Time
}

// NewTokenCache creates a token cache against the given token endpoint.
func NewTokenCache(tokenURL string, timeout time.Duration) *TokenCache {
	return &TokenCache{
		entries:  cache.New(0),
		tokenURL: tokenURL,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// tokenResponse is the credential-exchange payload.
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   float64 `json:"expires_in"`
}

// Token returns a bearer token for the username, exchanging credentials
// when no fresh cached token exists.
func (tc *TokenCache) Token(ctx context.Context, username, password string) (string, error) {
	if cached, ok := tc.entries.Get(username); ok {
		entry := cached.(tokenEntry)
		if tc.now().Add(refreshSkew).Before(entry.expiresAt) {
			return entry.token, nil
		}
	}

	token, expiresAt, err := tc.exchange(ctx, username, password)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	tc.entries.Set(username, tokenEntry{token: token, expiresAt: expiresAt})

	logger := logging.Ctx(ctx)
	logger.Debug().
		Str("username", username).
		Time("expires_at", expiresAt).
		Msg("upstream bearer token refreshed")

	return token, nil
}

// exchange posts the credentials to the token endpoint and determines the
// token's expiry instant.
func (tc *TokenCache) exchange(ctx context.Context, username, password string) (string, time.Time, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return "", time.Time{}, fmt.Errorf("token endpoint returned HTTP %d: %s",
			resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token endpoint returned empty access_token")
	}

	expiresAt := tc.expiryFor(tr)
	return tr.AccessToken, expiresAt, nil
}

// expiryFor derives the token expiry from expires_in, cross-checked against
// the JWT exp claim when the token parses as a JWT; the earlier of the two
// wins so a stale clock on either side cannot extend a token's life.
func (tc *TokenCache) expiryFor(tr tokenResponse) time.Time {
	expiresAt := tc.now().Add(time.Duration(tr.ExpiresIn * float64(time.Second)))
	if tr.ExpiresIn <= 0 {
		// No advertised lifetime; assume a conservative hour.
		expiresAt = tc.now().Add(time.Hour)
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if exp.Time.Before(expiresAt) {
				expiresAt = exp.Time
			}
		}
	}
	return expiresAt
}
