package monitor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"leadsniper-engine/internal/cooldown"
	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
)

type mockGate struct {
	mu      sync.Mutex
	verdict bool
	calls   []string
}

func (g *mockGate) Qualify(ctx context.Context, text string) domain.QualificationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, text)
	return domain.QualificationResult{IsLead: g.verdict}
}

func (g *mockGate) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type mockSender struct {
	mu    sync.Mutex
	sent  []domain.Notification
	failN int
}

func (s *mockSender) Send(ctx context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return errkind.Errorf(errkind.Delivery, "mock delivery failure")
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *mockSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var testKeywords = []string{"urgent", "exam", "tutor", "stuck", "need help"}

func newTestPipeline(verdict bool) (*Pipeline, *mockGate, *mockSender) {
	gate := &mockGate{verdict: verdict}
	sender := &mockSender{}
	p := &Pipeline{
		Keywords: testKeywords,
		Cooldown: cooldown.New(),
		TTL:      time.Hour,
		Gate:     gate,
		Sender:   sender,
	}
	return p, gate, sender
}

func leadCandidate(id string) domain.Candidate {
	return domain.Candidate{
		Kind:       domain.KindSubmission,
		SourceName: "r/Calculus",
		ExternalID: id,
		Title:      "calc 2 exam tomorrow",
		Text:       "calc 2 exam tomorrow, completely stuck on integration by parts, need a tutor tonight",
		URL:        "https://reddit.com/r/Calculus/comments/" + id,
		ObservedAt: time.Now(),
	}
}

// Scenario A: keywords hit, classifier says yes, exactly one notification.
func TestQualifyingCandidateDispatchesOnce(t *testing.T) {
	p, gate, sender := newTestPipeline(true)
	p.Process(context.Background(), leadCandidate("t3_a"))

	if gate.callCount() != 1 {
		t.Fatalf("expected 1 classifier call, got %d", gate.callCount())
	}
	if sender.sentCount() != 1 {
		t.Fatalf("expected 1 notification, got %d", sender.sentCount())
	}
	n := sender.sent[0]
	if n.Title != "calc 2 exam tomorrow" {
		t.Fatalf("title should derive from the post title, got %q", n.Title)
	}
	if !strings.Contains(n.Snippet, "integration by parts") {
		t.Fatalf("snippet should carry the original text, got %q", n.Snippet)
	}
	if p.Dispatched() != 1 {
		t.Fatalf("dispatched counter should be 1, got %d", p.Dispatched())
	}
}

// Scenario B: no trigger keyword, classifier never invoked.
func TestFilteredCandidateNeverReachesClassifier(t *testing.T) {
	p, gate, sender := newTestPipeline(true)
	c := leadCandidate("t3_b")
	c.Title = "a quiet chat"
	c.Text = "just discussing the history of calculus notation"
	p.Process(context.Background(), c)

	if gate.callCount() != 0 {
		t.Fatal("classifier must not run for filtered-out candidates")
	}
	if sender.sentCount() != 0 {
		t.Fatal("no notification expected")
	}
}

// Scenario C: identical fingerprint twice inside the window dispatches once.
func TestCooldownSuppressesRepeat(t *testing.T) {
	p, gate, sender := newTestPipeline(true)
	p.Process(context.Background(), leadCandidate("t3_c"))
	p.Process(context.Background(), leadCandidate("t3_c"))

	if sender.sentCount() != 1 {
		t.Fatalf("expected 1 notification for duplicate content, got %d", sender.sentCount())
	}
	if gate.callCount() != 1 {
		t.Fatalf("duplicate should not be re-qualified, got %d calls", gate.callCount())
	}
}

func TestExpiredCooldownAllowsRequalification(t *testing.T) {
	p, gate, _ := newTestPipeline(true)
	p.TTL = 5 * time.Millisecond
	p.Process(context.Background(), leadCandidate("t3_d"))
	time.Sleep(20 * time.Millisecond)
	p.Process(context.Background(), leadCandidate("t3_d"))

	if gate.callCount() != 2 {
		t.Fatalf("expired fingerprint should be eligible again, got %d calls", gate.callCount())
	}
}

// Scenario D: classifier says no — nothing dispatched, nothing recorded.
func TestRejectedCandidateIsNotRecorded(t *testing.T) {
	p, _, sender := newTestPipeline(false)
	c := leadCandidate("t3_e")
	p.Process(context.Background(), c)

	if sender.sentCount() != 0 {
		t.Fatal("rejected candidate must not notify")
	}
	if p.Cooldown.Seen(c.Fingerprint()) {
		t.Fatal("negative qualification must not be recorded")
	}
}

// Delivery failure is terminal for the candidate but the fingerprint stays
// recorded: no second attempt through the pipeline.
func TestDeliveryFailureDoesNotUnrecord(t *testing.T) {
	p, gate, sender := newTestPipeline(true)
	sender.failN = 1
	c := leadCandidate("t3_f")
	p.Process(context.Background(), c)

	if sender.sentCount() != 0 {
		t.Fatal("first delivery should have failed")
	}
	if !p.Cooldown.Seen(c.Fingerprint()) {
		t.Fatal("fingerprint must stay recorded after a failed dispatch")
	}

	p.Process(context.Background(), c)
	if gate.callCount() != 1 {
		t.Fatal("failed delivery must not trigger re-qualification")
	}
}
