package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// streamState tracks where a streaming turn is. The turn moves strictly
// forward: text streams first, then at most one tool round-trip, then the
// follow-up text, then done.
type streamState int

const (
	stateStreamingText streamState = iota
	stateAwaitingTool
	stateStreamingFollowup
	stateDone
)

// GenerateRequest is one visitor turn plus the context it runs in.
type GenerateRequest struct {
	Prompt  string
	History []*genai.Content
	Context string
}

// ContactArgs are the fields the contact tool requires. All three must be
// present or the submission is rejected back to the model.
type ContactArgs struct {
	Name    string
	Email   string
	Message string
}

// ToolExecutor persists a confirmed contact submission and returns the
// payload handed back to the model for its follow-up.
type ToolExecutor func(ctx context.Context, args ContactArgs) (map[string]any, error)

// Reply is the completed turn.
type Reply struct {
	Text      string
	ToolFired bool
}

// StreamReply runs one assistant turn, forwarding text deltas to onChunk as
// they arrive. When the model requests the contact tool, only the first call
// of the turn is honored: it runs through execTool, the result goes back to
// the model, and the follow-up text streams through onChunk as well. Reply
// carries the full concatenated text for persistence.
func (c *Client) StreamReply(ctx context.Context, req GenerateRequest, execTool ToolExecutor, onChunk func(text string)) (*Reply, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	contents = append(contents, req.History...)
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	system := systemInstruction(req.Context)
	tools := contactFormTool()

	reply := &Reply{}
	var full strings.Builder
	var call *genai.FunctionCall
	var callContent *genai.Content
	var result map[string]any

	for st := stateStreamingText; st != stateDone; {
		switch st {
		case stateStreamingText:
			for resp, err := range c.stream(ctx, system, contents, tools) {
				if err != nil {
					return nil, fmt.Errorf("generation stream failed: %w", err)
				}
				if text := chunkText(resp); text != "" {
					full.WriteString(text)
					onChunk(text)
				}
				if fcs := resp.FunctionCalls(); len(fcs) > 0 && call == nil {
					call = fcs[0]
					callContent = resp.Candidates[0].Content
					if len(fcs) > 1 {
						log.Printf("[Generate] model requested %d tool calls, honoring the first", len(fcs))
					}
				}
			}
			if call == nil {
				st = stateDone
			} else {
				st = stateAwaitingTool
			}

		case stateAwaitingTool:
			args, ok := parseContactArgs(call.Args)
			if !ok {
				result = map[string]any{
					"success": false,
					"error":   "name, email and message are all required; ask the visitor for whichever is missing",
				}
			} else if res, err := execTool(ctx, args); err != nil {
				log.Printf("[Generate] contact tool failed: %v", err)
				result = map[string]any{
					"success": false,
					"error":   "the message could not be saved; apologize and point the visitor to the contact page",
				}
			} else {
				result = res
				reply.ToolFired = true
			}
			st = stateStreamingFollowup

		case stateStreamingFollowup:
			followup := append(contents, callContent,
				genai.NewContentFromFunctionResponse(call.Name, result, genai.RoleUser))
			for resp, err := range c.stream(ctx, system, followup, tools) {
				if err != nil {
					return nil, fmt.Errorf("follow-up stream failed: %w", err)
				}
				if text := chunkText(resp); text != "" {
					full.WriteString(text)
					onChunk(text)
				}
			}
			st = stateDone
		}
	}

	reply.Text = full.String()
	return reply, nil
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func parseContactArgs(raw map[string]any) (ContactArgs, bool) {
	str := func(key string) string {
		v, _ := raw[key].(string)
		return strings.TrimSpace(v)
	}
	args := ContactArgs{
		Name:    str("name"),
		Email:   str("email"),
		Message: str("message"),
	}
	return args, args.Name != "" && args.Email != "" && args.Message != ""
}

func contactFormTool() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "submit_contact_form",
			Description: "Delivers the visitor's message to the site owner. Call only after collecting the visitor's name, email and message and getting their explicit confirmation.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":    {Type: genai.TypeString, Description: "The visitor's name."},
					"email":   {Type: genai.TypeString, Description: "The visitor's email address."},
					"message": {Type: genai.TypeString, Description: "The message for the site owner."},
				},
				Required: []string{"name", "email", "message"},
			},
		}},
	}}
}
