// Package reddit reads new submissions and comments from the public OAuth
// API. The original push-style stream is emulated by polling the newest
// listing and yielding only unseen fullnames (see stream.go).
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"
	listingLimit    = 100
)

type Client struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// Overridable in tests.
	TokenURL string
	APIBase  string
	HTTP     *http.Client

	limiter *rate.Limiter

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(clientID, clientSecret, userAgent string) *Client {
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
		TokenURL:     defaultTokenURL,
		APIBase:      defaultAPIBase,
		HTTP:         &http.Client{Timeout: 30 * time.Second},
		// reddit allows ~60 req/min for app-only clients
		limiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// Authenticate fetches an app-only token. A credential rejection here is
// fatal: the process should abort with a diagnostic, not retry forever.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.freshToken(ctx)
	return err
}

func (c *Client) freshToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errkind.Wrap(errkind.Retryable, err)
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errkind.Wrap(errkind.Retryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", errkind.Errorf(errkind.Fatal, "reddit rejected credentials: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errkind.Errorf(errkind.Retryable, "reddit token endpoint: %s", resp.Status)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", errkind.Wrap(errkind.Retryable, err)
	}
	if tok.AccessToken == "" {
		return "", errkind.Errorf(errkind.Fatal, "reddit token endpoint returned no token")
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.mu.Unlock()
	return tok.AccessToken, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok, exp := c.token, c.tokenExp
	c.mu.Unlock()
	if tok != "" && time.Until(exp) > time.Minute {
		return tok, nil
	}
	return c.freshToken(ctx)
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// reddit listing envelope; only the fields the pipeline needs
type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Name       string  `json:"name"`
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Body       string  `json:"body"`
				LinkTitle  string  `json:"link_title"`
				Permalink  string  `json:"permalink"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) fetchListing(ctx context.Context, path string) (listing, error) {
	var lst listing
	if err := c.limiter.Wait(ctx); err != nil {
		return lst, err
	}
	tok, err := c.bearer(ctx)
	if err != nil {
		return lst, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBase+path, nil)
	if err != nil {
		return lst, errkind.Wrap(errkind.Retryable, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return lst, errkind.Wrap(errkind.Retryable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// token expired mid-flight; next call fetches a fresh one
		c.invalidateToken()
		return lst, errkind.Errorf(errkind.Retryable, "reddit listing auth expired: %s", resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return lst, errkind.Errorf(errkind.Retryable, "reddit listing: %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return lst, errkind.Errorf(errkind.Retryable, "reddit listing unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&lst); err != nil {
		return lst, errkind.Wrap(errkind.Retryable, err)
	}
	return lst, nil
}

func multireddit(subreddits []string) string {
	return strings.Join(subreddits, "+")
}

// NewSubmissions returns the newest submissions across subreddits,
// newest-first as reddit delivers them.
func (c *Client) NewSubmissions(ctx context.Context, subreddits []string) ([]domain.Candidate, error) {
	path := fmt.Sprintf("/r/%s/new.json?limit=%d&raw_json=1", multireddit(subreddits), listingLimit)
	lst, err := c.fetchListing(ctx, path)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]domain.Candidate, 0, len(lst.Data.Children))
	for _, ch := range lst.Data.Children {
		d := ch.Data
		if d.Name == "" || d.Permalink == "" {
			continue // malformed entry, skip
		}
		out = append(out, domain.Candidate{
			Kind:       domain.KindSubmission,
			SourceName: "r/" + d.Subreddit,
			ExternalID: d.Name,
			Title:      d.Title,
			Text:       d.Selftext,
			URL:        "https://reddit.com" + d.Permalink,
			ObservedAt: now,
		})
	}
	return out, nil
}

// NewComments returns the newest comments across subreddits. The parent
// submission title rides along in link_title and becomes context for the
// classifier.
func (c *Client) NewComments(ctx context.Context, subreddits []string) ([]domain.Candidate, error) {
	path := fmt.Sprintf("/r/%s/comments.json?limit=%d&raw_json=1", multireddit(subreddits), listingLimit)
	lst, err := c.fetchListing(ctx, path)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]domain.Candidate, 0, len(lst.Data.Children))
	for _, ch := range lst.Data.Children {
		d := ch.Data
		if d.Name == "" || d.Permalink == "" {
			continue
		}
		title := ""
		if d.LinkTitle != "" {
			title = "Comment on: " + d.LinkTitle
		}
		out = append(out, domain.Candidate{
			Kind:       domain.KindComment,
			SourceName: "r/" + d.Subreddit,
			ExternalID: d.Name,
			Title:      title,
			Text:       d.Body,
			URL:        "https://reddit.com" + d.Permalink,
			ObservedAt: now,
		})
	}
	return out, nil
}
