package models

import "time"

// Message is a post reactions attach to. ID is the canonical key; ChatID is nil
// for messages that exist only as inline posts.
type Message struct {
	ID                   string    `gorm:"primaryKey" json:"id"`
	ChatID               *string   `gorm:"index" json:"chat_id,omitempty"`
	Chat                 *Chat     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	OriginalMessageID    string    `json:"original_message_id,omitempty"`
	FromUserID           string    `gorm:"index;not null" json:"from_user_id"`
	FromUser             *User     `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE" json:"-"`
	ForwardFromID        *string   `json:"forward_from_id,omitempty"`
	ForwardFrom          *User     `gorm:"foreignKey:ForwardFromID;constraint:OnDelete:SET NULL" json:"-"`
	ForwardChatName      *string   `json:"forward_chat_name,omitempty"`
	ForwardChatUsername  *string   `json:"forward_chat_username,omitempty"`
	ForwardFromMessageID *string   `json:"forward_from_message_id,omitempty"`
	Anonymous            bool      `json:"anonymous"`
	Date                 time.Time `json:"date"`
	CreatedAt            time.Time `json:"created_at"`
}

// Inline reports whether the message lives only as an inline post
func (m *Message) Inline() bool {
	return m.ChatID == nil
}

// Button is one labeled counter on a message. Index fixes render order.
type Button struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	MessageID string   `gorm:"not null;uniqueIndex:idx_button_message_text" json:"message_id"`
	Message   *Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Index     int      `gorm:"not null" json:"index"`
	Text      string   `gorm:"not null;uniqueIndex:idx_button_message_text" json:"text"`
	Count     int      `gorm:"not null;default:0" json:"count"`
	Permanent bool     `gorm:"not null;default:false" json:"permanent"`
}

// Reaction records the single button a user currently holds on a message.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_reaction_user_message" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MessageID string    `gorm:"not null;uniqueIndex:idx_reaction_user_message" json:"message_id"`
	Message   *Message  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ButtonID  uint      `gorm:"not null;index" json:"button_id"`
	Button    *Button   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Chat{}, &Message{}, &Button{}, &Reaction{}}
}
