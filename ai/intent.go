package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"portfolio/models"
)

// IntentResult says whether a conversation looks like a genuine business
// inquiry worth offering a live hand-off for.
type IntentResult struct {
	Business   bool   `json:"business"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// ClassifyIntent inspects the recent turns of a session. Like the scope
// check it never fails the chat turn: on error the verdict is simply "no
// business intent detected".
func (c *Client) ClassifyIntent(ctx context.Context, turns []models.ChatMessage) IntentResult {
	raw, err := c.prompt(ctx, intentSystem, renderTurns(turns))
	if err != nil {
		log.Printf("[Intent] classifier call failed: %v", err)
		return IntentResult{}
	}

	var r IntentResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		log.Printf("[Intent] unparseable verdict %q: %v", raw, err)
		return IntentResult{}
	}
	r.Confidence = clamp(r.Confidence, 0, 100)
	return r
}

// ExtractVisitorName pulls the visitor's name out of the conversation when
// they mentioned one. Empty string means no name was given.
func (c *Client) ExtractVisitorName(ctx context.Context, turns []models.ChatMessage) string {
	raw, err := c.prompt(ctx, nameSystem, renderTurns(turns))
	if err != nil {
		log.Printf("[Intent] name extraction failed: %v", err)
		return ""
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		log.Printf("[Intent] unparseable name %q: %v", raw, err)
		return ""
	}
	return strings.TrimSpace(out.Name)
}

func renderTurns(turns []models.ChatMessage) string {
	var b strings.Builder
	for _, t := range turns {
		who := "Visitor"
		if t.Role == models.RoleModel {
			who = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, t.Content)
	}
	return b.String()
}
