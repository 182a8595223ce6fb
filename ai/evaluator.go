package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// PassingScore is the lowest evaluator score at which a reply is served
// as-is. Below it the revised reply, when present, is preferred.
const PassingScore = 7

// EvalResult grades a generated reply.
type EvalResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Revised  string `json:"revised"`
}

// Evaluate scores the assistant's reply to a prompt. It fails soft: when
// the grader itself errors, the reply gets a perfect score so the visitor
// still receives the answer that was already generated.
func (c *Client) Evaluate(ctx context.Context, userPrompt, aiReply string) EvalResult {
	user := fmt.Sprintf("Visitor asked:\n%s\n\nAssistant replied:\n%s", userPrompt, aiReply)
	raw, err := c.prompt(ctx, evalSystem, user)
	if err != nil {
		log.Printf("[Eval] grading call failed, accepting reply: %v", err)
		return EvalResult{Score: 10}
	}

	var r EvalResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		log.Printf("[Eval] unparseable grade %q, accepting reply: %v", raw, err)
		return EvalResult{Score: 10}
	}
	r.Score = clamp(r.Score, 1, 10)
	return r
}
