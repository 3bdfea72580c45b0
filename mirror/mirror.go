// Package mirror keeps a logged-in user's local view of their conversations
// consistent while facts arrive over two unrelated paths: REST snapshots and
// responses on one side, socket push events on the other. All methods must be
// called from a single goroutine, mirroring how the event loop of a client
// delivers events one at a time.
package mirror

import "time"

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	PhotoUrl string `json:"photoUrl"`
	Online   bool   `json:"online"`
}

type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversationId"`
	SenderID       uint      `json:"senderId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation is one entry of the mirror. ID 0 marks a draft: an entry
// created by a user search that has no server-side conversation yet. A zero
// watermark means that side has read nothing.
type Conversation struct {
	ID                uint      `json:"id"`
	OtherUser         User      `json:"otherUser"`
	Messages          []Message `json:"messages"`
	LatestMessageText string    `json:"latestMessageText"`
	NotificationCount int       `json:"notificationCount"`
	LastReadByMe      uint      `json:"lastReadByMe"`
	LastReadByOther   uint      `json:"lastReadByOther"`
}

// MessageEvent is the push-channel "new-message" fact. Sender is non-nil only
// when the message establishes a conversation the recipient has never seen.
type MessageEvent struct {
	Message     Message `json:"message"`
	RecipientID uint    `json:"recipientId"`
	Sender      *User   `json:"sender,omitempty"`
}

// ReadReceiptEvent travels both ways: the mirror emits it when the user sees
// a message, and applies it when the other participant reads one of ours.
type ReadReceiptEvent struct {
	ConversationID uint `json:"conversationId"`
	MessageID      uint `json:"messageId"`
	ReaderID       uint `json:"readerId"`
	SenderID       uint `json:"senderId"`
}

// ReadSender delivers read acknowledgments toward the server, fire and
// forget. The server side is idempotent, so re-sending is harmless.
type ReadSender interface {
	SendRead(receipt ReadReceiptEvent)
}

type Mirror struct {
	me            User
	reads         ReadSender
	conversations []*Conversation
	activeChat    string
}

func New(me User, reads ReadSender) *Mirror {
	return &Mirror{me: me, reads: reads}
}

// Conversations returns the mirror's entries, newest established first.
func (m *Mirror) Conversations() []*Conversation {
	return m.conversations
}

func (m *Mirror) ActiveChat() string {
	return m.activeChat
}

// LoadSnapshot replaces the mirror wholesale with a fetched snapshot.
// Snapshots carry messages newest first, locally we keep them oldest first.
func (m *Mirror) LoadSnapshot(conversations []Conversation) {
	m.conversations = nil
	for i := range conversations {
		convo := conversations[i]
		// Reverse into a fresh slice, the caller keeps its own copy intact
		messages := make([]Message, len(convo.Messages))
		for j, message := range convo.Messages {
			messages[len(messages)-1-j] = message
		}
		convo.Messages = messages
		m.conversations = append(m.conversations, &convo)
	}
}

// CommitSent applies a message of our own after the durable write was
// acknowledged. There is no optimistic append before that, and the push
// channel never echoes our own sends, so this is the only way our messages
// enter the mirror.
func (m *Mirror) CommitSent(recipientID uint, message Message) {
	if convo := m.findByID(message.ConversationID); convo != nil {
		m.appendMessage(convo, message)
		return
	}

	// First message toward this user, usually into a search draft
	if convo := m.findByOtherUser(recipientID); convo != nil {
		convo.ID = message.ConversationID
		m.appendMessage(convo, message)
		return
	}

	m.conversations = append([]*Conversation{{
		ID:                message.ConversationID,
		OtherUser:         User{ID: recipientID},
		Messages:          []Message{message},
		LatestMessageText: message.Text,
	}}, m.conversations...)
}

// ApplyMessage reconciles a push-channel "new-message" fact. A tagged Sender
// means a stranger just opened a conversation with us, so a local entry is
// synthesized. An event for an id we do not know yet is dropped, push events
// can race ahead of the snapshot load.
func (m *Mirror) ApplyMessage(event MessageEvent) {
	convo := m.findByID(event.Message.ConversationID)

	if convo == nil && event.Sender != nil {
		m.conversations = append([]*Conversation{{
			ID:                event.Message.ConversationID,
			OtherUser:         *event.Sender,
			Messages:          []Message{event.Message},
			LatestMessageText: event.Message.Text,
			NotificationCount: 1,
		}}, m.conversations...)
		return
	}
	if convo == nil {
		return
	}

	m.appendMessage(convo, event.Message)

	if event.Message.SenderID == convo.OtherUser.ID {
		if m.activeChat == convo.OtherUser.Username {
			// The user is looking at this conversation right now
			m.reads.SendRead(ReadReceiptEvent{
				ConversationID: convo.ID,
				MessageID:      event.Message.ID,
				ReaderID:       m.me.ID,
				SenderID:       convo.OtherUser.ID,
			})
		} else {
			convo.NotificationCount++
		}
	}
}

// AddSearchedUsers appends a draft entry for every searched user we have no
// conversation with yet.
func (m *Mirror) AddSearchedUsers(users []User) {
	known := make(map[uint]bool)
	for _, convo := range m.conversations {
		known[convo.OtherUser.ID] = true
	}

	for _, user := range users {
		if known[user.ID] {
			continue
		}
		m.conversations = append(m.conversations, &Conversation{
			OtherUser: user,
			Messages:  []Message{},
		})
	}
}

// ClearSearchedUsers drops every draft, entries with a real conversation id
// are never touched.
func (m *Mirror) ClearSearchedUsers() {
	kept := m.conversations[:0]
	for _, convo := range m.conversations {
		if convo.ID != 0 {
			kept = append(kept, convo)
		}
	}
	m.conversations = kept
}

// SetActiveChat opens a conversation: its notification count drops to zero
// and the newest message from the other participant is acknowledged, once.
// Leading messages sent by us are skipped. A conversation with no incoming
// messages yet is a legitimate state, nothing is acknowledged then.
func (m *Mirror) SetActiveChat(username string) {
	m.activeChat = username

	convo := m.findByUsername(username)
	if convo == nil {
		return
	}
	convo.NotificationCount = 0

	for i := len(convo.Messages) - 1; i >= 0; i-- {
		if convo.Messages[i].SenderID != convo.OtherUser.ID {
			continue
		}
		m.reads.SendRead(ReadReceiptEvent{
			ConversationID: convo.ID,
			MessageID:      convo.Messages[i].ID,
			ReaderID:       m.me.ID,
			SenderID:       convo.OtherUser.ID,
		})
		return
	}
}

// SetOnline flips the presence flag on the matching conversation's other
// participant. Nothing else changes.
func (m *Mirror) SetOnline(userID uint, online bool) {
	for _, convo := range m.conversations {
		if convo.OtherUser.ID == userID {
			convo.OtherUser.Online = online
		}
	}
}

// ApplyReadReceipt records that the other participant read one of our
// messages. Only the watermark moves, notification counts track our own
// unread messages and stay untouched.
func (m *Mirror) ApplyReadReceipt(event ReadReceiptEvent) {
	convo := m.findByID(event.ConversationID)
	if convo == nil || convo.OtherUser.ID != event.ReaderID {
		return
	}
	convo.LastReadByOther = event.MessageID
}

func (m *Mirror) appendMessage(convo *Conversation, message Message) {
	convo.Messages = append(convo.Messages, message)
	convo.LatestMessageText = message.Text
}

func (m *Mirror) findByID(conversationID uint) *Conversation {
	if conversationID == 0 {
		return nil
	}
	for _, convo := range m.conversations {
		if convo.ID == conversationID {
			return convo
		}
	}
	return nil
}

func (m *Mirror) findByOtherUser(userID uint) *Conversation {
	for _, convo := range m.conversations {
		if convo.OtherUser.ID == userID {
			return convo
		}
	}
	return nil
}

func (m *Mirror) findByUsername(username string) *Conversation {
	for _, convo := range m.conversations {
		if convo.OtherUser.Username == username {
			return convo
		}
	}
	return nil
}
