package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const tokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"

// TokenSource acquires Bot Framework access tokens via the client-credentials
// grant and caches them until shortly before expiry.
type TokenSource struct {
	appID       string
	appPassword string
	httpc       *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource builds a token source for the given bot app credentials.
func NewTokenSource(appID, appPassword string) *TokenSource {
	return &TokenSource{
		appID:       appID,
		appPassword: appPassword,
		httpc:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns a valid access token, refreshing it if the cached one is
// expired or about to expire.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry.Add(-time.Minute)) {
		return t.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.appID},
		"client_secret": {t.appPassword},
		"scope":         {"https://api.botframework.com/.default"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response: empty access_token")
	}

	t.token = body.AccessToken
	t.expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return t.token, nil
}
