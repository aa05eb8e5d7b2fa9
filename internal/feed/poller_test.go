package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadsniper-engine/internal/domain"
)

const alertFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Google Alerts - math tutor</title>
  <entry>
    <id>tag:google.com,2013:googlealerts/feed:101</id>
    <title>&lt;b&gt;Urgent&lt;/b&gt; math tutor needed tonight</title>
    <link href="https://www.google.com/url?rct=j&amp;url=https://example.com/posts/101&amp;ct=ga"/>
    <published>2026-03-01T12:00:00Z</published>
    <content type="html">Student is &lt;b&gt;completely stuck&lt;/b&gt; before the exam</content>
  </entry>
  <entry>
    <id>tag:google.com,2013:googlealerts/feed:102</id>
    <title>calculus help wanted</title>
    <link href="https://example.org/direct/102"/>
    <published>2026-03-01T12:05:00Z</published>
    <content type="html">plain summary</content>
  </entry>
</feed>`

func TestPollOnceParsesAndDedupesWithinProcess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, alertFeedXML)
	}))
	defer srv.Close()

	p := NewPoller([]string{srv.URL})

	first := p.PollOnce(context.Background())
	if len(first) != 2 {
		t.Fatalf("expected 2 entries on first poll, got %d", len(first))
	}

	got := first[0]
	if got.Kind != domain.KindFeedEntry {
		t.Fatalf("unexpected kind %q", got.Kind)
	}
	if got.SourceName != "Google Alerts - math tutor" {
		t.Fatalf("unexpected source label %q", got.SourceName)
	}
	if got.Title != "Urgent math tutor needed tonight" {
		t.Fatalf("markup not stripped from title: %q", got.Title)
	}
	if !strings.Contains(got.Text, "completely stuck") || strings.Contains(got.Text, "<b>") {
		t.Fatalf("markup not stripped from body: %q", got.Text)
	}
	if got.URL != "https://example.com/posts/101" {
		t.Fatalf("alert redirect not unwrapped: %q", got.URL)
	}
	if first[1].URL != "https://example.org/direct/102" {
		t.Fatalf("direct link should pass through, got %q", first[1].URL)
	}

	second := p.PollOnce(context.Background())
	if len(second) != 0 {
		t.Fatalf("already-yielded entries must not repeat, got %d", len(second))
	}
}

func TestPollOnceSkipsBrokenFeed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, alertFeedXML)
	}))
	defer good.Close()

	p := NewPoller([]string{bad.URL, good.URL})
	out := p.PollOnce(context.Background())
	if len(out) != 2 {
		t.Fatalf("broken feed must not block the healthy one, got %d entries", len(out))
	}
}

func TestResolveAlertLink(t *testing.T) {
	cases := map[string]string{
		"https://www.google.com/url?rct=j&url=https%3A%2F%2Fexample.com%2Fa&ct=ga": "https://example.com/a",
		"https://example.com/plain": "https://example.com/plain",
		"https://www.google.com/url?rct=j&ct=ga": "https://www.google.com/url?rct=j&ct=ga",
	}
	for in, want := range cases {
		if got := resolveAlertLink(in); got != want {
			t.Fatalf("resolveAlertLink(%q) = %q, want %q", in, got, want)
		}
	}
}
