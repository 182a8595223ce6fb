package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"portfolio/ai"
	"portfolio/models"
)

// ErrNameNeeded is returned when a hand-off cannot start because no display
// name could be resolved for the visitor.
var ErrNameNeeded = fmt.Errorf("visitor name needed before hand-off")

const anonymousName = "Anonymous visitor"

// Coordinator moves chat sessions into live mode and relays messages between
// the visitor and the operator's Telegram chat.
type Coordinator struct {
	db *gorm.DB
	ai *ai.Client
}

func NewCoordinator(db *gorm.DB, aiClient *ai.Client) *Coordinator {
	return &Coordinator{db: db, ai: aiClient}
}

// ResolveName finds a display name for the visitor: the client-supplied name
// wins, then a name the visitor stated earlier in the conversation, then the
// name stored from a previous hand-off attempt.
func (co *Coordinator) ResolveName(ctx context.Context, session *models.ChatSession, supplied string, turns []models.ChatMessage) string {
	if s := strings.TrimSpace(supplied); s != "" {
		return s
	}
	if session.HandoffName != "" {
		return session.HandoffName
	}
	if co.ai != nil {
		if name := co.ai.ExtractVisitorName(ctx, turns); name != "" {
			return name
		}
	}
	return ""
}

// RequestHandoff switches the session to live mode and alerts the operator.
// Requesting again while already live is a no-op that reuses the stored name.
// The Telegram alert is best effort: the session goes live even when the
// operator chat is unreachable, so the visitor is not bounced back to the AI.
func (co *Coordinator) RequestHandoff(ctx context.Context, session *models.ChatSession, supplied string, turns []models.ChatMessage) (string, error) {
	name := co.ResolveName(ctx, session, supplied, turns)
	if name == "" {
		return "", ErrNameNeeded
	}

	alreadyLive := session.IsHandoffLive()
	if err := models.MarkHandoffLive(co.db, session, name); err != nil {
		return "", fmt.Errorf("failed to mark session live: %w", err)
	}
	if alreadyLive {
		return name, nil
	}

	chatID := OperatorChatID()
	if chatID == 0 {
		log.Printf("[Handoff] TELEGRAM_CHAT_ID not set, session %s live without alert", session.ID)
		return name, nil
	}

	msgID, err := SendMessage(chatID, handoffAlert(session.ID, name, turns), 0)
	if err != nil {
		log.Printf("[Handoff] alert for session %s failed: %v", session.ID, err)
		return name, nil
	}
	if err := models.CreateRelay(co.db, session.ID, msgID); err != nil {
		log.Printf("[Handoff] relay record for session %s failed: %v", session.ID, err)
	}
	return name, nil
}

// RelayVisitorMessage forwards one live visitor message to the operator.
// Best effort: a Telegram outage never fails the visitor's turn.
func (co *Coordinator) RelayVisitorMessage(sessionID, name, text string) {
	chatID := OperatorChatID()
	if chatID == 0 {
		return
	}
	msgID, err := SendMessage(chatID, fmt.Sprintf("💬 <b>%s</b>\n%s", escapeHTML(name), escapeHTML(text)), 0)
	if err != nil {
		log.Printf("[Handoff] relay for session %s failed: %v", sessionID, err)
		return
	}
	if err := models.CreateRelay(co.db, sessionID, msgID); err != nil {
		log.Printf("[Handoff] relay record for session %s failed: %v", sessionID, err)
	}
}

// ResolveUpdateSession maps an operator reply to a session: a reply to one of
// the bot's relay messages wins, otherwise the most recently requested live
// session. Empty string when nothing matches.
func (co *Coordinator) ResolveUpdateSession(update *Update) string {
	if update.Message != nil && update.Message.ReplyToMessage != nil {
		id, err := models.RelaySession(co.db, update.Message.ReplyToMessage.MessageID)
		if err != nil {
			log.Printf("[Handoff] relay lookup failed: %v", err)
		} else if id != "" {
			return id
		}
	}
	id, err := models.MostRecentLiveSession(co.db)
	if err != nil {
		log.Printf("[Handoff] live session lookup failed: %v", err)
		return ""
	}
	return id
}

// HandleUpdate processes one webhook update: authenticate the chat, resolve
// the target session, append the operator's reply.
func (co *Coordinator) HandleUpdate(update *Update) {
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}
	if update.Message.From != nil && update.Message.From.IsBot {
		return
	}

	chatID := OperatorChatID()
	if chatID == 0 || update.Message.Chat == nil || update.Message.Chat.ID != chatID {
		log.Printf("[Handoff] update from unrecognized chat dropped")
		return
	}

	sessionID := co.ResolveUpdateSession(update)
	if sessionID == "" {
		log.Printf("[Handoff] no live session for operator reply, dropped")
		return
	}

	if err := models.RecordHumanReply(co.db, sessionID, update.Message.Text); err != nil {
		log.Printf("[Handoff] failed to record reply for session %s: %v", sessionID, err)
	}
}

func handoffAlert(sessionID, name string, turns []models.ChatMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>Live chat requested</b>\nVisitor: %s\nSession: <code>%s</code>\n", escapeHTML(name), escapeHTML(sessionID))
	if len(turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		start := 0
		if len(turns) > 6 {
			start = len(turns) - 6
		}
		for _, t := range turns[start:] {
			who := "Visitor"
			if t.Role == models.RoleModel {
				who = "Assistant"
			}
			fmt.Fprintf(&b, "<b>%s:</b> %s\n", who, escapeHTML(t.Content))
		}
	}
	b.WriteString("\nReply to this message to answer the visitor.")
	return b.String()
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
