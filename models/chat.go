package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Hand-off status values. A session starts with no hand-off record; once it
// goes live it stays live for the rest of the session.
const (
	HandoffNone = ""
	HandoffLive = "live"
)

// Message roles and senders as stored per turn.
const (
	RoleUser    = "user"
	RoleModel   = "model"
	SenderAI    = "ai"
	SenderHuman = "human"
)

// ChatSession is one visitor conversation, identified by the opaque
// client-generated id the widget creates at page load.
type ChatSession struct {
	ID                 string     `gorm:"primaryKey;size:64" json:"id"`
	HandoffStatus      string     `gorm:"column:handoff_status;size:20" json:"handoff_status,omitempty"`
	HandoffName        string     `gorm:"column:handoff_name;size:100" json:"handoff_name,omitempty"`
	HandoffRequestedAt *time.Time `gorm:"column:handoff_requested_at" json:"handoff_requested_at,omitempty"`
	HandoffLastReply   string     `gorm:"column:handoff_last_reply;type:text" json:"handoff_last_reply,omitempty"`
	HandoffLastReplyAt *time.Time `gorm:"column:handoff_last_reply_at" json:"handoff_last_reply_at,omitempty"`
	LastEvalScore      int        `gorm:"column:last_eval_score" json:"last_eval_score,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	Messages      []ChatMessage  `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
	UnknownEvents []UnknownEvent `gorm:"foreignKey:SessionID" json:"unknown_events,omitempty"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// IsHandoffLive reports whether the session has left AI-served mode.
func (s *ChatSession) IsHandoffLive() bool {
	return s.HandoffStatus == HandoffLive
}

// IsHandoffActive reports whether a human reply has arrived since the
// hand-off was requested (live-pending vs live-active).
func (s *ChatSession) IsHandoffActive() bool {
	return s.IsHandoffLive() && s.HandoffLastReplyAt != nil
}

// ChatMessage represents a single turn in a session
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"column:session_id;size:64;not null;index" json:"session_id"`
	Role      string    `gorm:"size:10;not null" json:"role"`
	Sender    string    `gorm:"size:10" json:"sender,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	SentAt    time.Time `gorm:"column:sent_at" json:"sent_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// UnknownEvent records one turn the scope classifier flagged as out of scope.
// Rows are append-only; nothing in the service updates or deletes them.
type UnknownEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"column:session_id;size:64;not null;index" json:"session_id"`
	Prompt     string    `gorm:"type:text" json:"prompt"`
	Reason     string    `gorm:"size:500" json:"reason"`
	Confidence int       `json:"confidence"`
	At         time.Time `json:"at"`
}

func (UnknownEvent) TableName() string {
	return "unknown_events"
}

// GetOrCreateSession loads a session by id, creating an empty one on first
// contact. The second return value is true when the session was just created.
func GetOrCreateSession(db *gorm.DB, id string) (*ChatSession, bool, error) {
	var session ChatSession
	err := db.First(&session, "id = ?", id).Error
	if err == nil {
		return &session, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	now := time.Now()
	session = ChatSession{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// AppendMessage adds one turn to a session's history.
func AppendMessage(db *gorm.DB, sessionID, role, sender, content string) error {
	msg := ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Sender:    sender,
		Content:   content,
		SentAt:    time.Now(),
	}
	if err := db.Create(&msg).Error; err != nil {
		return err
	}
	return db.Model(&ChatSession{}).Where("id = ?", sessionID).
		Update("updated_at", time.Now()).Error
}

// SessionMessages returns the session history in conversation order.
func SessionMessages(db *gorm.DB, sessionID string) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := db.Where("session_id = ?", sessionID).Order("sent_at ASC, id ASC").Find(&messages).Error
	return messages, err
}

// UserTurnCount counts visitor turns in a session (intent classification gate).
func UserTurnCount(db *gorm.DB, sessionID string) (int64, error) {
	var n int64
	err := db.Model(&ChatMessage{}).
		Where("session_id = ? AND role = ?", sessionID, RoleUser).Count(&n).Error
	return n, err
}

// AddUnknownEvent appends an out-of-scope record. Best-effort at call sites;
// callers log and drop the error.
func AddUnknownEvent(db *gorm.DB, sessionID, prompt, reason string, confidence int) error {
	return db.Create(&UnknownEvent{
		SessionID:  sessionID,
		Prompt:     prompt,
		Reason:     reason,
		Confidence: confidence,
		At:         time.Now(),
	}).Error
}

// SetLastEvalScore overwrites the session's most recent evaluator score.
func SetLastEvalScore(db *gorm.DB, sessionID string, score int) error {
	return db.Model(&ChatSession{}).Where("id = ?", sessionID).
		Update("last_eval_score", score).Error
}

// MarkHandoffLive moves a session into live hand-off mode. Calling it again
// for an already-live session is a no-op so a repeated request never resets
// the hand-off record.
func MarkHandoffLive(db *gorm.DB, session *ChatSession, displayName string) error {
	if session.IsHandoffLive() {
		return nil
	}
	now := time.Now()
	session.HandoffStatus = HandoffLive
	session.HandoffName = displayName
	session.HandoffRequestedAt = &now
	return db.Model(session).Updates(map[string]interface{}{
		"handoff_status":       HandoffLive,
		"handoff_name":         displayName,
		"handoff_requested_at": now,
	}).Error
}

// RecordHumanReply appends an operator reply to the session and updates the
// hand-off bookkeeping in one pass.
func RecordHumanReply(db *gorm.DB, sessionID, text string) error {
	if err := AppendMessage(db, sessionID, RoleModel, SenderHuman, text); err != nil {
		return err
	}
	now := time.Now()
	return db.Model(&ChatSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"handoff_status":        HandoffLive,
		"handoff_last_reply":    text,
		"handoff_last_reply_at": now,
	}).Error
}
