// Package qualify wraps the external semantic classifier behind a fail-closed
// yes/no gate.
package qualify

import (
	"context"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
	"leadsniper-engine/internal/retry"
)

// Gate decides whether a candidate text is a genuine, urgent request for
// tutoring help. Implementations never surface errors: anything unclear is
// not-a-lead.
type Gate interface {
	Qualify(ctx context.Context, text string) domain.QualificationResult
}

// Instruction is the fixed qualification policy sent with every request.
const Instruction = "You are a lead qualifier for a math tutor. Analyze the following text. " +
	"Does the user explicitly express a desperate need for help, tutoring, " +
	"or is struggling with an upcoming exam? If it is a spam bot, a promotional ad, " +
	"a general discussion about math, or a rant with no intent to learn, return NO. " +
	"If it is a student explicitly asking for help, return YES. " +
	"Respond with ONLY 'YES' or 'NO'."

// OpenAIGate calls a chat-completion endpoint with the fixed instruction and
// reads a YES/NO token back.
type OpenAIGate struct {
	client *openai.Client
	model  string
	policy retry.Policy
}

// NewOpenAIGate builds a gate. baseURL is empty in production; tests point it
// at a local server.
func NewOpenAIGate(apiKey, baseURL, model string, policy retry.Policy) *OpenAIGate {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGate{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		policy: policy,
	}
}

// Qualify is one-shot per candidate. Transport errors are retried a bounded
// number of times with backoff; exhaustion or a malformed response fails
// closed to not-a-lead and is logged, never raised.
func (g *OpenAIGate) Qualify(ctx context.Context, text string) domain.QualificationResult {
	var answer string
	err := retry.Do(ctx, g.policy, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.model,
			Temperature: 0.1,
			MaxTokens:   10, // we only need YES or NO
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: Instruction},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
		})
		if err != nil {
			return errkind.Wrap(errkind.Retryable, err)
		}
		if len(resp.Choices) == 0 {
			return errkind.Errorf(errkind.Malformed, "classifier returned no choices")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		log.Printf("[qualify] classifier unavailable, failing closed: %v", err)
		return domain.QualificationResult{}
	}

	verdict := strings.ToUpper(strings.TrimSpace(answer))
	return domain.QualificationResult{
		IsLead:    strings.Contains(verdict, "YES"),
		Rationale: verdict,
	}
}
