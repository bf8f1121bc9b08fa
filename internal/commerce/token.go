package commerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"

	"log/slog"
)

// expiryMargin shrinks the advertised token lifetime so a token is never
// presented right at its deadline.
const expiryMargin = 30 * time.Second

// tokenSource caches the client-credentials access token and refreshes it
// ahead of expiry. Safe for concurrent use.
type tokenSource struct {
	client *Client

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

func newTokenSource(c *Client) *tokenSource {
	return &tokenSource{client: c, now: time.Now}
}

func (t *tokenSource) get(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiry) {
		return t.token, nil
	}
	return t.refresh(ctx)
}

// refresh is called with t.mu held.
func (t *tokenSource) refresh(ctx context.Context) (string, error) {
	const endpoint = "/oauth/access_token/"

	form := url.Values{
		"client_id":     {t.client.cfg.ClientID},
		"client_secret": {t.client.cfg.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.client.cfg.BaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", unavailable(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := t.client.httpc.Do(req)
	if err != nil {
		return "", unavailable(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &APIError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", unavailable(endpoint, err)
	}
	if grant.AccessToken == "" {
		return "", unavailable(endpoint, errEmptyToken)
	}

	lifetime := time.Duration(grant.ExpiresIn) * time.Second
	if lifetime <= expiryMargin {
		lifetime = time.Minute
	}
	t.token = grant.AccessToken
	t.expiry = t.now().Add(lifetime - expiryMargin)

	logger.Debug(ctx, "commerce", "token.refresh",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
		slog.Duration("lifetime", lifetime),
	)
	return t.token, nil
}

var errEmptyToken = &APIError{Endpoint: "/oauth/access_token/", Status: http.StatusOK, Body: "empty access_token"}
