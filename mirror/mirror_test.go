package mirror

import "testing"

type readRecorder struct {
	receipts []ReadReceiptEvent
}

func (r *readRecorder) SendRead(receipt ReadReceiptEvent) {
	r.receipts = append(r.receipts, receipt)
}

var (
	me    = User{ID: 1, Username: "alice"}
	other = User{ID: 2, Username: "bob"}
)

func newTestMirror() (*Mirror, *readRecorder) {
	reads := &readRecorder{}
	return New(me, reads), reads
}

func snapshotWith(messages ...Message) []Conversation {
	return []Conversation{{
		ID:        10,
		OtherUser: other,
		Messages:  messages,
	}}
}

func TestLoadSnapshotReversesMessages(t *testing.T) {
	m, _ := newTestMirror()

	// Snapshots arrive newest first
	snapshot := snapshotWith(
		Message{ID: 3, ConversationID: 10, SenderID: 2, Text: "three"},
		Message{ID: 2, ConversationID: 10, SenderID: 1, Text: "two"},
		Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "one"},
	)
	m.LoadSnapshot(snapshot)

	convos := m.Conversations()
	if len(convos) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convos))
	}
	messages := convos[0].Messages
	if messages[0].ID != 1 || messages[1].ID != 2 || messages[2].ID != 3 {
		t.Errorf("expected oldest-first order, got %d,%d,%d", messages[0].ID, messages[1].ID, messages[2].ID)
	}
	if snapshot[0].Messages[0].ID != 3 {
		t.Errorf("loading must not reorder the caller's slice, got leading id %d", snapshot[0].Messages[0].ID)
	}
}

func TestApplyMessageAppendsAndCounts(t *testing.T) {
	m, reads := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 1, Text: "hi"}))

	m.ApplyMessage(MessageEvent{
		Message:     Message{ID: 2, ConversationID: 10, SenderID: 2, Text: "hello"},
		RecipientID: 1,
	})

	convo := m.Conversations()[0]
	if len(convo.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(convo.Messages))
	}
	if convo.LatestMessageText != "hello" {
		t.Errorf("latestMessageText = %q", convo.LatestMessageText)
	}
	if convo.NotificationCount != 1 {
		t.Errorf("notificationCount = %d, want 1", convo.NotificationCount)
	}
	if len(reads.receipts) != 0 {
		t.Errorf("expected no read acks, got %d", len(reads.receipts))
	}
}

func TestApplyMessageActiveChatAcksInsteadOfCounting(t *testing.T) {
	m, reads := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}))
	m.SetActiveChat("bob")
	reads.receipts = nil

	m.ApplyMessage(MessageEvent{
		Message:     Message{ID: 2, ConversationID: 10, SenderID: 2, Text: "you there?"},
		RecipientID: 1,
	})

	convo := m.Conversations()[0]
	if convo.NotificationCount != 0 {
		t.Errorf("notificationCount = %d, want 0 while conversation is open", convo.NotificationCount)
	}
	if len(reads.receipts) != 1 {
		t.Fatalf("expected 1 read ack, got %d", len(reads.receipts))
	}
	if reads.receipts[0].MessageID != 2 || reads.receipts[0].ReaderID != 1 || reads.receipts[0].SenderID != 2 {
		t.Errorf("unexpected receipt %+v", reads.receipts[0])
	}
}

func TestApplyMessageSynthesizesNewConversation(t *testing.T) {
	m, _ := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}))

	stranger := User{ID: 3, Username: "carol"}
	m.ApplyMessage(MessageEvent{
		Message:     Message{ID: 5, ConversationID: 20, SenderID: 3, Text: "hey, stranger"},
		RecipientID: 1,
		Sender:      &stranger,
	})

	convos := m.Conversations()
	if len(convos) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convos))
	}
	// New conversations go to the top
	if convos[0].ID != 20 || convos[0].OtherUser.ID != 3 {
		t.Errorf("expected synthesized conversation first, got id=%d other=%d", convos[0].ID, convos[0].OtherUser.ID)
	}
	if convos[0].NotificationCount != 1 {
		t.Errorf("notificationCount = %d, want 1", convos[0].NotificationCount)
	}
}

func TestApplyMessageUnknownConversationIsNoop(t *testing.T) {
	m, reads := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}))

	// Untagged event for an id we never loaded, it raced the snapshot
	m.ApplyMessage(MessageEvent{
		Message:     Message{ID: 9, ConversationID: 99, SenderID: 4, Text: "lost"},
		RecipientID: 1,
	})

	if len(m.Conversations()) != 1 {
		t.Errorf("expected mirror unchanged, got %d conversations", len(m.Conversations()))
	}
	if len(reads.receipts) != 0 {
		t.Errorf("expected no side effects, got %d receipts", len(reads.receipts))
	}
}

func TestCommitSentPromotesDraft(t *testing.T) {
	m, _ := newTestMirror()
	m.AddSearchedUsers([]User{other})

	m.CommitSent(2, Message{ID: 7, ConversationID: 30, SenderID: 1, Text: "first"})

	convos := m.Conversations()
	if len(convos) != 1 {
		t.Fatalf("expected the draft to be promoted in place, got %d entries", len(convos))
	}
	if convos[0].ID != 30 {
		t.Errorf("conversation id = %d, want 30", convos[0].ID)
	}
	if len(convos[0].Messages) != 1 || convos[0].LatestMessageText != "first" {
		t.Errorf("unexpected conversation state %+v", convos[0])
	}
	if convos[0].NotificationCount != 0 {
		t.Errorf("own sends must not count as notifications, got %d", convos[0].NotificationCount)
	}
}

func TestSenderSeesOwnMessageExactlyOnce(t *testing.T) {
	m, _ := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}))

	// Durable ack applies the send, the push channel never echoes it back
	m.CommitSent(2, Message{ID: 2, ConversationID: 10, SenderID: 1, Text: "hello"})

	convo := m.Conversations()[0]
	seen := 0
	for _, message := range convo.Messages {
		if message.ID == 2 {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected own message exactly once, got %d", seen)
	}
	if convo.NotificationCount != 0 {
		t.Errorf("notificationCount = %d, want 0", convo.NotificationCount)
	}
}

func TestClearSearchedUsersKeepsRealConversations(t *testing.T) {
	m, _ := newTestMirror()
	m.LoadSnapshot(snapshotWith(Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}))

	m.AddSearchedUsers([]User{
		{ID: 3, Username: "carol"},
		{ID: 4, Username: "dave"},
		other, // already have a conversation, no draft
	})
	if len(m.Conversations()) != 3 {
		t.Fatalf("expected 2 drafts added, got %d entries", len(m.Conversations()))
	}

	m.ClearSearchedUsers()

	convos := m.Conversations()
	if len(convos) != 1 {
		t.Fatalf("expected only the real conversation to survive, got %d", len(convos))
	}
	if convos[0].ID != 10 {
		t.Errorf("surviving conversation id = %d, want 10", convos[0].ID)
	}
}

func TestSetActiveChatAcksNewestIncomingOnce(t *testing.T) {
	m, reads := newTestMirror()
	m.LoadSnapshot([]Conversation{{
		ID:                10,
		OtherUser:         other,
		NotificationCount: 3,
		Messages: []Message{
			// Newest first, as the server sends them
			{ID: 5, ConversationID: 10, SenderID: 1, Text: "mine, newest"},
			{ID: 4, ConversationID: 10, SenderID: 2, Text: "theirs"},
			{ID: 3, ConversationID: 10, SenderID: 2, Text: "theirs"},
			{ID: 2, ConversationID: 10, SenderID: 2, Text: "theirs"},
		},
	}})

	m.SetActiveChat("bob")

	convo := m.Conversations()[0]
	if convo.NotificationCount != 0 {
		t.Errorf("notificationCount = %d, want 0", convo.NotificationCount)
	}
	if len(reads.receipts) != 1 {
		t.Fatalf("expected exactly one ack, got %d", len(reads.receipts))
	}
	// The leading message is ours and gets skipped
	if reads.receipts[0].MessageID != 4 {
		t.Errorf("acked message %d, want newest incoming 4", reads.receipts[0].MessageID)
	}
}

func TestSetActiveChatWithoutIncomingMessages(t *testing.T) {
	m, reads := newTestMirror()
	m.AddSearchedUsers([]User{other})

	m.SetActiveChat("bob")

	if len(reads.receipts) != 0 {
		t.Errorf("expected no ack for a conversation with no incoming messages, got %d", len(reads.receipts))
	}
	if m.ActiveChat() != "bob" {
		t.Errorf("activeChat = %q", m.ActiveChat())
	}
}

func TestSetOnlineFlipsOnlyPresence(t *testing.T) {
	m, _ := newTestMirror()
	m.LoadSnapshot([]Conversation{{
		ID:                10,
		OtherUser:         other,
		NotificationCount: 1,
		Messages:          []Message{{ID: 1, ConversationID: 10, SenderID: 2, Text: "hi"}},
	}})

	m.SetOnline(2, true)
	convo := m.Conversations()[0]
	if !convo.OtherUser.Online {
		t.Error("expected bob online")
	}
	if convo.NotificationCount != 1 {
		t.Errorf("presence must not touch notificationCount, got %d", convo.NotificationCount)
	}

	m.SetOnline(2, false)
	if m.Conversations()[0].OtherUser.Online {
		t.Error("expected bob offline")
	}

	// Unknown user, nothing to flip
	m.SetOnline(99, true)
}

func TestApplyReadReceiptMovesWatermarkOnly(t *testing.T) {
	m, _ := newTestMirror()
	m.LoadSnapshot(snapshotWith(
		Message{ID: 2, ConversationID: 10, SenderID: 1, Text: "mine"},
		Message{ID: 1, ConversationID: 10, SenderID: 2, Text: "theirs"},
	))
	before := *m.Conversations()[0]

	m.ApplyReadReceipt(ReadReceiptEvent{
		ConversationID: 10,
		MessageID:      2,
		ReaderID:       2,
		SenderID:       1,
	})

	convo := m.Conversations()[0]
	if convo.LastReadByOther != 2 {
		t.Errorf("lastReadByOther = %d, want 2", convo.LastReadByOther)
	}
	if convo.NotificationCount != before.NotificationCount {
		t.Error("read receipt must not touch notificationCount")
	}
	if len(convo.Messages) != len(before.Messages) {
		t.Error("read receipt must not touch messages")
	}

	// Receipt from someone who is not the other participant is dropped
	m.ApplyReadReceipt(ReadReceiptEvent{ConversationID: 10, MessageID: 1, ReaderID: 7, SenderID: 1})
	if m.Conversations()[0].LastReadByOther != 2 {
		t.Error("expected foreign receipt to be ignored")
	}

	// Unknown conversation is a no-op
	m.ApplyReadReceipt(ReadReceiptEvent{ConversationID: 99, MessageID: 1, ReaderID: 2, SenderID: 1})
}
