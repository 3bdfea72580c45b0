package model

import "gorm.io/gorm"

// Conversation connects exactly two users. The pair is stored in canonical
// order (User1ID < User2ID) so the composite unique index can hold the
// "at most one conversation per pair" invariant even under racing creates.
type Conversation struct {
	gorm.Model
	User1ID uint `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"user1Id"`
	User2ID uint `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"user2Id"`
	User1   User `gorm:"foreignKey:User1ID" json:"-"`
	User2   User `gorm:"foreignKey:User2ID" json:"-"`

	Messages []Message `json:"messages"`
}

// Message is append-only. Readers is the set of users who acknowledged the
// message, kept as a join table rather than a flag so both participants'
// read state stays independent.
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"not null;index" json:"conversationId"`
	SenderID       uint   `gorm:"not null" json:"senderId"`
	Text           string `gorm:"not null" json:"text"`

	Readers []User `gorm:"many2many:message_readers" json:"-"`
}
