package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact message sources.
const (
	ContactSourceForm = "contact_form"
	ContactSourceChat = "ai_chat"
)

// ContactMessage is a message left through the contact form or collected by
// the AI assistant's contact tool.
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Source    string    `gorm:"size:20" json:"source"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}

// SaveContactMessage persists a contact record. This is the one required write
// in the chat tool flow; the email notification that follows is best-effort.
func SaveContactMessage(db *gorm.DB, name, email, message, source string) (*ContactMessage, error) {
	contact := ContactMessage{
		Name:    name,
		Email:   email,
		Message: message,
		Source:  source,
	}
	if err := db.Create(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}
