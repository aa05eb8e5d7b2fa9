package qualify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leadsniper-engine/internal/retry"
)

// chat-completion shaped response with the given content
func completionBody(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return b
}

func newGateAgainst(t *testing.T, handler http.HandlerFunc) (*OpenAIGate, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	policy := retry.Policy{Attempts: 3, Base: time.Millisecond}
	return NewOpenAIGate("test-key", srv.URL+"/v1", "gpt-4o-mini", policy), srv
}

func TestQualifyYes(t *testing.T) {
	gate, _ := newGateAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionBody("YES"))
	})
	res := gate.Qualify(context.Background(), "calc 2 exam tomorrow, completely stuck, need a tutor tonight")
	if !res.IsLead {
		t.Fatal("YES verdict should qualify")
	}
}

func TestQualifyNo(t *testing.T) {
	gate, _ := newGateAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionBody("no"))
	})
	res := gate.Qualify(context.Background(), "discussing the history of calculus notation")
	if res.IsLead {
		t.Fatal("NO verdict must not qualify")
	}
}

func TestQualifyFailsClosedOnTransportError(t *testing.T) {
	var calls atomic.Int32
	gate, _ := newGateAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	res := gate.Qualify(context.Background(), "exam tomorrow help")
	if res.IsLead {
		t.Fatal("transport failure must fail closed")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 bounded attempts, got %d", got)
	}
}

func TestQualifyFailsClosedOnMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	gate, _ := newGateAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[]}`))
	})
	res := gate.Qualify(context.Background(), "exam tomorrow help")
	if res.IsLead {
		t.Fatal("empty choices must fail closed")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("malformed payload should not be retried, got %d calls", got)
	}
}

func TestQualifyRecoversWithinRetryBudget(t *testing.T) {
	var calls atomic.Int32
	gate, _ := newGateAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(completionBody("YES"))
	})
	res := gate.Qualify(context.Background(), "midterm friday and I am desperate for a tutor")
	if !res.IsLead {
		t.Fatal("a transient failure inside the budget should still qualify")
	}
}
