package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// HandoffRelay maps a Telegram message id back to the session whose message it
// relayed. One row is created per outbound relay and never updated or deleted,
// so an operator reply threaded on any relayed message resolves to the right
// session. At most one session claims a given message id by construction.
type HandoffRelay struct {
	TelegramMessageID int64     `gorm:"primaryKey;autoIncrement:false;column:telegram_message_id" json:"telegram_message_id"`
	SessionID         string    `gorm:"column:session_id;size:64;not null;index" json:"session_id"`
	Status            string    `gorm:"size:20" json:"status"`
	RequestedAt       time.Time `gorm:"column:requested_at;index" json:"requested_at"`
}

func (HandoffRelay) TableName() string {
	return "handoff_relays"
}

// CreateRelay records an outbound relay message.
func CreateRelay(db *gorm.DB, sessionID string, telegramMessageID int64) error {
	return db.Create(&HandoffRelay{
		TelegramMessageID: telegramMessageID,
		SessionID:         sessionID,
		Status:            HandoffLive,
		RequestedAt:       time.Now(),
	}).Error
}

// RelaySession resolves the session that produced a given relayed message.
// Returns empty string when the id is unknown.
func RelaySession(db *gorm.DB, telegramMessageID int64) (string, error) {
	var relay HandoffRelay
	err := db.Where("telegram_message_id = ? AND status = ?", telegramMessageID, HandoffLive).
		First(&relay).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return relay.SessionID, nil
}

// MostRecentLiveSession returns the live session with the newest hand-off
// request, or empty string when none is live. Operator replies that are not
// threaded on a specific relayed message fall back to this.
func MostRecentLiveSession(db *gorm.DB) (string, error) {
	var session ChatSession
	err := db.Where("handoff_status = ?", HandoffLive).
		Order("handoff_requested_at DESC").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return session.ID, nil
}
