package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"chat-service/database"
	"chat-service/event"
	"chat-service/presence"
	"chat-service/socketio"
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
)

type MessageCreateInput struct {
	RecipientId    uint                `json:"recipientId"`
	Text           string              `json:"text"`
	ConversationId uint                `json:"conversationId"`
	Sender         *store.SnapshotUser `json:"sender"`
}

type MessageReadInput struct {
	Id             uint `json:"id"`
	SenderId       uint `json:"senderId"`
	ConversationId uint `json:"conversationId"`
}

// MessageCreate commits a message, resolving the conversation first when the
// client does not know its id yet (first message between the pair). The
// response is the durable acknowledgment the sender's mirror waits for, the
// push channel never echoes it back to the sender.
func MessageCreate(registry presence.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := new(MessageCreateInput)
		if err := c.BodyParser(input); err != nil {
			return badRequest(c, "Review your input")
		}
		if input.Text == "" {
			return badRequest(c, "Message text is required")
		}

		senderID := currentUserID(c)

		conversationID := input.ConversationId
		if conversationID == 0 {
			if input.RecipientId == 0 {
				return badRequest(c, "Recipient is required")
			}
			convo, err := store.Resolve(database.Postgres, senderID, input.RecipientId)
			if err != nil {
				if errors.Is(err, store.ErrSameUser) {
					return badRequest(c, "Cannot message yourself")
				}
				return serverError(c)
			}
			conversationID = convo.ID
		}

		message, err := store.CreateMessage(database.Postgres, conversationID, senderID, input.Text)
		if err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"status":  "error",
					"message": "Conversation not found",
					"data":    nil,
				})
			}
			return serverError(c)
		}

		sender := input.Sender
		if sender != nil {
			sender.Online = registry.IsOnline(sender.Id)
		}

		if body, err := json.Marshal(message); err == nil {
			event.Emit("notifications", "message.created", body, true)
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": nil,
			"data": fiber.Map{
				"message": store.SnapshotMessage{
					Id:             message.ID,
					ConversationId: message.ConversationID,
					SenderId:       message.SenderID,
					Text:           message.Text,
					CreatedAt:      message.CreatedAt,
					ReaderIds:      []uint{},
				},
				"sender": sender,
			},
		})
	}
}

// MessageRead records the requester as a reader of the message. Repeats are
// no-ops, the read-receipt push toward the sender fires only when the pair
// newly becomes read.
func MessageRead(c *fiber.Ctx) error {
	input := new(MessageReadInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}

	readerID := currentUserID(c)

	newlyRead, err := store.MarkRead(database.Postgres, input.Id, readerID)
	if err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			// The message vanished under us, nothing to record
			log.Printf("read receipt for missing message %d from user %d", input.Id, readerID)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return serverError(c)
	}

	if newlyRead {
		receipt := fiber.Map{
			"conversationId": input.ConversationId,
			"messageId":      input.Id,
			"readerId":       readerID,
			"senderId":       input.SenderId,
		}
		socketio.Emit(fmt.Sprint(input.SenderId), "message-read", receipt)

		if body, err := json.Marshal(receipt); err == nil {
			event.Emit("notifications", "message.read", body, true)
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}
