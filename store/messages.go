package store

import (
	"errors"

	"chat-service/model"

	"gorm.io/gorm"
)

// CreateMessage appends a message to an existing conversation. The write is
// committed before the function returns, nothing is acknowledged
// optimistically.
func CreateMessage(db *gorm.DB, conversationID uint, senderID uint, text string) (*model.Message, error) {
	convo := new(model.Conversation)
	if err := db.First(convo, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	message := &model.Message{
		ConversationID: convo.ID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// MarkRead adds the reader to the message's reader set. Repeated calls for
// the same pair are a no-op and return false, so the caller can fire the
// read-receipt event exactly once per (message, reader) that newly becomes
// read. Duplicate socket deliveries and client retries land here.
func MarkRead(db *gorm.DB, messageID uint, readerID uint) (bool, error) {
	message := new(model.Message)
	if err := db.First(message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMessageNotFound
		}
		return false, err
	}

	// The join table's composite primary key arbitrates concurrent marks,
	// the insert race loser sees a duplicate and reports nothing new.
	err := db.Table("message_readers").Create(map[string]interface{}{
		"message_id": message.ID,
		"user_id":    readerID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
