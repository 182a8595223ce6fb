package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"portfolio/ai"
	"portfolio/controllers/telegram"
	"portfolio/database"
	"portfolio/middleware"
	"portfolio/models"
	"portfolio/utils"
)

// BusinessIntentThreshold is the minimum intent-classifier confidence at
// which the widget is told to suggest a live chat.
const BusinessIntentThreshold = 70

// intentGateTurns is how many visitor turns must exist before the intent
// classifier runs at all.
const intentGateTurns = 3

// ChatRequest is one visitor turn. History is an optional client-side copy of
// the conversation, used only when the server store has none (e.g. the store
// was wiped but the widget still holds the transcript).
type ChatRequest struct {
	Prompt       string        `json:"prompt" validate:"required,msgmax"`
	History      []HistoryTurn `json:"history,omitempty"`
	ForceHandoff bool          `json:"forceHandoff,omitempty"`
	UserName     string        `json:"userName,omitempty"`
}

type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sseStream writes typed frames in server-sent-event format.
type sseStream struct {
	w  http.ResponseWriter
	fl http.Flusher
}

func newSSEStream(w http.ResponseWriter) (*sseStream, bool) {
	fl, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &sseStream{w: w, fl: fl}, true
}

func (s *sseStream) send(frame map[string]any) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[Chat] failed to marshal frame: %v", err)
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.fl.Flush()
}

func (s *sseStream) chunk(text string) {
	s.send(map[string]any{"type": "chunk", "text": text})
}

func (s *sseStream) done() {
	s.send(map[string]any{"type": "done"})
}

func (s *sseStream) fail(message string) {
	s.send(map[string]any{"type": "error", "message": message})
	s.done()
}

// ChatHandler runs one assistant turn for POST /v1/chat/{session_id},
// streaming typed frames back to the widget.
func ChatHandler(aiClient *ai.Client, co *telegram.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(mux.Vars(r)["session_id"])
		if sessionID == "" || len(sessionID) > 64 {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
				Success: false,
				Message: "Invalid session id",
			})
			return
		}

		var req ChatRequest
		if err := middleware.ValidateJSON(w, r, &req); err != nil {
			return
		}

		stream, ok := newSSEStream(w)
		if !ok {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
				Success: false,
				Message: "Streaming unsupported",
			})
			return
		}

		ctx := r.Context()
		db := database.DB

		session, created, err := models.GetOrCreateSession(db, sessionID)
		if err != nil {
			log.Printf("[Chat] session load failed for %s: %v", sessionID, err)
			stream.fail("Something went wrong. Please try again.")
			return
		}
		if created {
			log.Printf("[Chat] new session %s", sessionID)
		}

		// History is read before the new prompt lands so the generator sees
		// the conversation up to, but not including, this turn.
		history, err := models.SessionMessages(db, sessionID)
		if err != nil {
			log.Printf("[Chat] history load failed for %s: %v", sessionID, err)
			history = nil
		}
		if len(history) == 0 && len(req.History) > 0 {
			for _, turn := range req.History {
				role := models.RoleUser
				if turn.Role == models.RoleModel {
					role = models.RoleModel
				}
				history = append(history, models.ChatMessage{Role: role, Content: turn.Content})
			}
		}

		if session.IsHandoffLive() {
			persistVisitorMessage(db, sessionID, req.Prompt)
			name := session.HandoffName
			if name == "" {
				name = "Anonymous visitor"
			}
			co.RelayVisitorMessage(sessionID, name, req.Prompt)
			stream.send(map[string]any{"type": "live_relayed"})
			stream.done()
			return
		}

		if req.ForceHandoff {
			handleHandoffRequest(ctx, stream, co, db, session, req, history)
			return
		}

		persistVisitorMessage(db, sessionID, req.Prompt)
		runAssistantTurn(ctx, stream, aiClient, db, session, req, history)
	}
}

func persistVisitorMessage(db *gorm.DB, sessionID, prompt string) {
	if err := models.AppendMessage(db, sessionID, models.RoleUser, "", prompt); err != nil {
		log.Printf("[Chat] failed to persist visitor message for %s: %v", sessionID, err)
	}
}

// handleHandoffRequest resolves a name and goes live. The visitor's message
// is persisted only once the hand-off proceeds: a name_needed halt means the
// client resends the same prompt with a name, and committing it early would
// put the retried turn in the history twice.
func handleHandoffRequest(ctx context.Context, stream *sseStream, co *telegram.Coordinator, db *gorm.DB, session *models.ChatSession, req ChatRequest, history []models.ChatMessage) {
	turns := append(history, models.ChatMessage{Role: models.RoleUser, Content: req.Prompt})
	name, err := co.RequestHandoff(ctx, session, req.UserName, turns)
	switch {
	case err == telegram.ErrNameNeeded:
		stream.send(map[string]any{"type": "name_needed"})
		stream.done()
	case err != nil:
		log.Printf("[Chat] hand-off request failed for %s: %v", session.ID, err)
		stream.fail("Could not reach a human right now. Please try again.")
	default:
		persistVisitorMessage(db, session.ID, req.Prompt)
		stream.send(map[string]any{
			"type":      "handoff_initiated",
			"sessionId": session.ID,
			"name":      name,
		})
		stream.done()
	}
}

func runAssistantTurn(ctx context.Context, stream *sseStream, aiClient *ai.Client, db *gorm.DB, session *models.ChatSession, req ChatRequest, history []models.ChatMessage) {
	portfolioContext := ai.BuildPortfolioContext(db)

	// Out-of-scope detection is advisory: the event is recorded and the
	// widget warned, but the answer is still generated. Every out-of-scope
	// verdict is logged to unknown_events; the widget frame fires only above
	// the confidence threshold.
	scope := aiClient.ClassifyScope(ctx, req.Prompt, ai.ContextSummary(portfolioContext))
	if scope.OutOfScope {
		if err := models.AddUnknownEvent(db, session.ID, req.Prompt, scope.Reason, scope.Confidence); err != nil {
			log.Printf("[Chat] failed to record unknown event for %s: %v", session.ID, err)
		}
	}
	if scope.Blocking() {
		stream.send(map[string]any{
			"type":       "unknown_question",
			"reason":     scope.Reason,
			"confidence": scope.Confidence,
		})
	}

	execTool := contactToolExecutor(db)
	reply, err := aiClient.StreamReply(ctx, ai.GenerateRequest{
		Prompt:  req.Prompt,
		History: ai.HistoryContents(history),
		Context: portfolioContext,
	}, execTool, stream.chunk)
	if err != nil {
		log.Printf("[Chat] generation failed for %s: %v", session.ID, err)
		stream.fail("Something went wrong. Please try again.")
		return
	}

	finalText := reply.Text
	eval := aiClient.Evaluate(ctx, req.Prompt, finalText)
	if err := models.SetLastEvalScore(db, session.ID, eval.Score); err != nil {
		log.Printf("[Chat] failed to store eval score for %s: %v", session.ID, err)
	}
	if eval.Score < ai.PassingScore && eval.Revised != "" {
		addendum := "\n\n" + eval.Revised
		stream.chunk(addendum)
		finalText += addendum
	}

	if err := models.AppendMessage(db, session.ID, models.RoleModel, models.SenderAI, finalText); err != nil {
		log.Printf("[Chat] failed to persist reply for %s: %v", session.ID, err)
	}

	maybeSuggestLiveChat(ctx, stream, aiClient, db, session, req, history)
	stream.done()
}

// maybeSuggestLiveChat runs the intent classifier once the conversation has
// enough visitor turns. Purely advisory: it never triggers a hand-off itself.
func maybeSuggestLiveChat(ctx context.Context, stream *sseStream, aiClient *ai.Client, db *gorm.DB, session *models.ChatSession, req ChatRequest, history []models.ChatMessage) {
	if session.IsHandoffLive() {
		return
	}
	turns, err := models.UserTurnCount(db, session.ID)
	if err != nil {
		log.Printf("[Chat] turn count failed for %s: %v", session.ID, err)
		return
	}
	if turns < intentGateTurns {
		return
	}

	recent := append(history, models.ChatMessage{Role: models.RoleUser, Content: req.Prompt})
	intent := aiClient.ClassifyIntent(ctx, recent)
	if intent.Business && intent.Confidence >= BusinessIntentThreshold {
		stream.send(map[string]any{
			"type":       "suggest_live_chat",
			"reason":     intent.Reason,
			"confidence": intent.Confidence,
		})
	}
}

// contactToolExecutor persists a chat-collected contact message and fires the
// email notification. The email is best effort; the record is the source of
// truth.
func contactToolExecutor(db *gorm.DB) ai.ToolExecutor {
	return func(ctx context.Context, args ai.ContactArgs) (map[string]any, error) {
		msg, err := models.SaveContactMessage(db, args.Name, args.Email, args.Message, models.ContactSourceChat)
		if err != nil {
			return nil, fmt.Errorf("failed to save contact message: %w", err)
		}

		if _, err := utils.SendContactEmail(args.Name, args.Email, args.Message, models.ContactSourceChat); err != nil {
			log.Printf("[Chat] contact email failed (record %d saved): %v", msg.ID, err)
			return map[string]any{"success": true, "emailed": false}, nil
		}
		return map[string]any{"success": true, "emailed": true}, nil
	}
}

// ChatHistoryHandler returns the stored conversation for a session so the
// widget can poll for operator replies during live hand-off.
func ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(mux.Vars(r)["session_id"])
	if sessionID == "" || len(sessionID) > 64 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid session id",
		})
		return
	}

	db := database.DB
	var session models.ChatSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Session not found",
		})
		return
	}

	messages, err := models.SessionMessages(db, sessionID)
	if err != nil {
		log.Printf("[Chat] history load failed for %s: %v", sessionID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load history",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Chat history",
		Data: map[string]any{
			"session_id":     session.ID,
			"handoff_status": session.HandoffStatus,
			"handoff_active": session.IsHandoffActive(),
			"messages":       messages,
		},
	})
}
