package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type SourceKind string

const (
	KindSubmission SourceKind = "submission"
	KindComment    SourceKind = "comment"
	KindFeedEntry  SourceKind = "feed_entry"
)

// Candidate is one observed piece of content before filtering/qualification.
type Candidate struct {
	Kind       SourceKind
	SourceName string // e.g. "r/Calculus" or a feed URL
	ExternalID string // stable id from the origin system; unique per kind+source only
	Title      string // empty for bare comments
	Text       string
	URL        string
	ObservedAt time.Time
}

// CombinedText is the text the keyword filter and classifier both see.
func (c Candidate) CombinedText() string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return c.Text
	}
	return title + "\n\n" + c.Text
}

const fingerprintHexLen = 24

// Fingerprint is the cooldown key for this candidate. External ids are only
// unique within a kind, so the kind is mixed into the digest; when the origin
// gives no stable id, whitespace-normalized lowercased text stands in for it.
func (c Candidate) Fingerprint() string {
	seed := string(c.Kind) + "\x00" + strings.TrimSpace(c.ExternalID)
	if strings.TrimSpace(c.ExternalID) == "" {
		seed = string(c.Kind) + "\x00" + normalizeText(c.Text)
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// QualificationResult is the classifier's one-shot verdict on a candidate.
type QualificationResult struct {
	IsLead    bool
	Rationale string
}

// Notification is the outbound message for one qualifying candidate. It is
// derived 1:1 from the candidate and never persisted.
type Notification struct {
	Title       string
	Snippet     string
	URL         string
	SourceLabel string
	DetectedAt  time.Time
}

const (
	snippetMaxRunes = 500
	titleMaxRunes   = 80
)

// NotificationFrom builds the outbound message. A candidate without a title
// (a bare comment, say) gets one cut from the start of its text.
func NotificationFrom(c Candidate) Notification {
	text := strings.TrimSpace(c.Text)
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = truncateRunes(text, titleMaxRunes)
	}
	label := c.SourceName
	if c.Kind == KindComment {
		label += " (comment)"
	}
	return Notification{
		Title:       title,
		Snippet:     truncateRunes(text, snippetMaxRunes),
		URL:         c.URL,
		SourceLabel: label,
		DetectedAt:  c.ObservedAt,
	}
}

// truncateRunes cuts on rune boundaries so multi-byte text stays intact.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
