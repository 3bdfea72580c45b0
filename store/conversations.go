package store

import (
	"errors"
	"time"

	"chat-service/model"

	"gorm.io/gorm"
)

var (
	ErrSameUser             = errors.New("conversation requires two distinct users")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

type SnapshotUser struct {
	Id       uint   `json:"id"`
	Username string `json:"username"`
	PhotoUrl string `json:"photoUrl"`
	Online   bool   `json:"online"`
}

type SnapshotMessage struct {
	Id             uint      `json:"id"`
	ConversationId uint      `json:"conversationId"`
	SenderId       uint      `json:"senderId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
	ReaderIds      []uint    `json:"readerIds"`
}

// ConversationSnapshot is one conversation as seen by a given user. Messages
// are newest first so watermark scans can stop at the first match. A zero
// watermark id means that side has read nothing yet.
type ConversationSnapshot struct {
	Id                uint              `json:"id"`
	OtherUser         SnapshotUser      `json:"otherUser"`
	Messages          []SnapshotMessage `json:"messages"`
	LatestMessageText string            `json:"latestMessageText"`
	NotificationCount int               `json:"notificationCount"`
	LastReadByMe      uint              `json:"lastReadByMe"`
	LastReadByOther   uint              `json:"lastReadByOther"`
}

// ListConversationsFor returns every conversation the user participates in,
// with full message history and derived read state. Online is left false,
// the caller annotates it from the presence registry.
func ListConversationsFor(db *gorm.DB, userID uint) ([]ConversationSnapshot, error) {
	rawConvos := []model.Conversation{}
	err := db.
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Preload("User1").
		Preload("User2").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("messages.created_at DESC, messages.id DESC")
		}).
		Preload("Messages.Readers").
		Find(&rawConvos).Error
	if err != nil {
		return nil, err
	}

	snapshots := []ConversationSnapshot{}
	for _, convo := range rawConvos {
		other := convo.User1
		if convo.User1ID == userID {
			other = convo.User2
		}

		snapshot := ConversationSnapshot{
			Id: convo.ID,
			OtherUser: SnapshotUser{
				Id:       other.ID,
				Username: other.Username,
				PhotoUrl: other.PhotoUrl,
			},
			Messages: []SnapshotMessage{},
		}

		for _, message := range convo.Messages {
			readerIds := []uint{}
			for _, reader := range message.Readers {
				readerIds = append(readerIds, reader.ID)
			}
			snapshot.Messages = append(snapshot.Messages, SnapshotMessage{
				Id:             message.ID,
				ConversationId: message.ConversationID,
				SenderId:       message.SenderID,
				Text:           message.Text,
				CreatedAt:      message.CreatedAt,
				ReaderIds:      readerIds,
			})
		}

		if len(snapshot.Messages) > 0 {
			snapshot.LatestMessageText = snapshot.Messages[0].Text
		}
		deriveReadState(&snapshot, userID)

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

// deriveReadState walks messages newest to oldest and stops as soon as both
// watermarks are known. Only the newest acknowledged message defines a
// watermark, older ones may have been read out of order. Unread messages from
// the other user are only counted above my own watermark.
func deriveReadState(snapshot *ConversationSnapshot, userID uint) {
	lastReadByMeFound := false
	lastReadByOtherFound := false

	for _, message := range snapshot.Messages {
		if !lastReadByMeFound && containsReader(message.ReaderIds, userID) {
			snapshot.LastReadByMe = message.Id
			lastReadByMeFound = true
		}
		if !lastReadByOtherFound && containsReader(message.ReaderIds, snapshot.OtherUser.Id) {
			snapshot.LastReadByOther = message.Id
			lastReadByOtherFound = true
		}
		if !lastReadByMeFound && message.SenderId != userID {
			snapshot.NotificationCount++
		}
		if lastReadByMeFound && lastReadByOtherFound {
			break
		}
	}
}

func containsReader(readerIds []uint, userID uint) bool {
	for _, id := range readerIds {
		if id == userID {
			return true
		}
	}
	return false
}

// Resolve returns the single conversation between the two users, creating it
// if absent. Two first-message sends can race on the create, the unique pair
// index makes the loser fail with a duplicate key and re-query the winner's
// row instead of minting a second conversation.
func Resolve(db *gorm.DB, userA uint, userB uint) (*model.Conversation, error) {
	if userA == userB {
		return nil, ErrSameUser
	}

	user1, user2 := userA, userB
	if user2 < user1 {
		user1, user2 = user2, user1
	}

	convo := new(model.Conversation)
	err := db.Where(&model.Conversation{User1ID: user1, User2ID: user2}).First(convo).Error
	if err == nil {
		return convo, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	convo = &model.Conversation{User1ID: user1, User2ID: user2}
	err = db.Create(convo).Error
	if err == nil {
		return convo, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	// Lost the race, the other writer's conversation exists now
	convo = new(model.Conversation)
	if err := db.Where(&model.Conversation{User1ID: user1, User2ID: user2}).First(convo).Error; err != nil {
		return nil, err
	}
	return convo, nil
}
