package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// OutOfScopeThreshold is the minimum confidence at which an out-of-scope
// verdict is acted on. Below it the message is served normally.
const OutOfScopeThreshold = 75

// ScopeResult is the gatekeeper's verdict for a single visitor message.
type ScopeResult struct {
	OutOfScope bool   `json:"out_of_scope"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// Blocking returns true when the verdict is confident enough to act on.
func (r ScopeResult) Blocking() bool {
	return r.OutOfScope && r.Confidence >= OutOfScopeThreshold
}

// ClassifyScope asks the model whether a message belongs on the site.
// It fails open: any transport or parse error returns an in-scope verdict
// with zero confidence, because blocking a real visitor on a classifier
// hiccup is worse than letting a stray question through.
func (c *Client) ClassifyScope(ctx context.Context, message, contextSummary string) ScopeResult {
	user := fmt.Sprintf("Site owner summary:\n%s\n\nVisitor message:\n%s", contextSummary, message)
	raw, err := c.prompt(ctx, scopeSystem, user)
	if err != nil {
		log.Printf("[Scope] classifier call failed, serving message: %v", err)
		return ScopeResult{}
	}

	var r ScopeResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		log.Printf("[Scope] unparseable verdict %q, serving message: %v", raw, err)
		return ScopeResult{}
	}
	r.Confidence = clamp(r.Confidence, 0, 100)
	return r
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
