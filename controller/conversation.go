package controller

import (
	"chat-service/database"
	"chat-service/presence"
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
)

// Conversations returns every conversation of the requester with its full
// message history and derived read state, messages newest first. Presence is
// annotated here, the store knows nothing about who is connected.
func Conversations(registry presence.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshots, err := store.ListConversationsFor(database.Postgres, currentUserID(c))
		if err != nil {
			return serverError(c)
		}

		for i := range snapshots {
			snapshots[i].OtherUser.Online = registry.IsOnline(snapshots[i].OtherUser.Id)
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": nil,
			"data":    snapshots,
		})
	}
}
