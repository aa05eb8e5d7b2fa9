// Package feed polls Google-Alerts-style RSS/Atom feeds for candidates.
package feed

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
)

// Poller fetches a fixed set of feeds and yields entries it has not produced
// before in this process lifetime. That local dedup is a cheap first pass;
// the shared cooldown store still has the final say downstream.
type Poller struct {
	URLs   []string
	Client *http.Client

	parser  *gofeed.Parser
	limiter *rate.Limiter
	seen    map[string]struct{}
}

func NewPoller(urls []string) *Poller {
	return &Poller{
		URLs:    urls,
		Client:  &http.Client{Timeout: 15 * time.Second},
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		seen:    make(map[string]struct{}),
	}
}

// PollOnce fetches every configured feed once. A feed that fails to fetch or
// parse is logged and skipped; it gets another chance next tick, so a broken
// feed never takes the monitor down.
func (p *Poller) PollOnce(ctx context.Context) []domain.Candidate {
	var out []domain.Candidate
	for _, u := range p.URLs {
		entries, err := p.fetchFeed(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return out
			}
			log.Printf("[feed] fetch %s: %v", u, err)
			continue
		}
		out = append(out, entries...)
	}
	return out
}

func (p *Poller) fetchFeed(ctx context.Context, feedURL string) ([]domain.Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, errkind.Wrap(errkind.Malformed, err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, errkind.Wrap(errkind.Retryable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errkind.Errorf(errkind.Retryable, "feed status %s", resp.Status)
	}

	parsed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, errkind.Wrap(errkind.Malformed, err)
	}

	label := strings.TrimSpace(parsed.Title)
	if label == "" {
		label = feedURL
	}

	now := time.Now()
	var out []domain.Candidate
	for _, item := range parsed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			log.Printf("[feed] skipping entry with no id or link in %s", feedURL)
			continue
		}
		if _, ok := p.seen[id]; ok {
			continue
		}
		p.seen[id] = struct{}{}

		out = append(out, domain.Candidate{
			Kind:       domain.KindFeedEntry,
			SourceName: label,
			ExternalID: id,
			Title:      plainText(item.Title),
			Text:       plainText(firstNonEmpty(item.Description, item.Content)),
			URL:        resolveAlertLink(item.Link),
			ObservedAt: now,
		})
	}
	return out, nil
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// Alert feeds embed markup in titles and summaries; strip it down to text.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

// resolveAlertLink unwraps google.com/url?url=... redirect links to the real
// target; anything else passes through unchanged.
func resolveAlertLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if !strings.HasSuffix(u.Host, "google.com") || u.Path != "/url" {
		return link
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return link
}
