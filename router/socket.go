package router

import (
	"encoding/json"
	"strconv"

	"chat-service/event"
	"chat-service/presence"
	"chat-service/socketio"
	"chat-service/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

type PresenceEvent struct {
	Id uint `json:"id"`
}

// Socket wires the push channel. Clients announce themselves with go-online
// and relay their sends as new-message events; the server fans a send out to
// the recipient's room only, the sender already applied the durable response
// locally and must never receive its own echo.
func Socket(server *socket.Server, registry presence.Registry) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		userID := func() uint {
			if client.Data() == nil {
				return 0
			}
			id, _ := strconv.ParseUint(client.Data().(*utils.TokenMetadata).Id, 10, 64)
			return uint(id)
		}

		goOffline := func() {
			id := userID()
			if id == 0 {
				return
			}
			registry.Disconnect(id)
			socketio.Broadcast("remove-offline-user", PresenceEvent{Id: id})
			if body, err := json.Marshal(PresenceEvent{Id: id}); err == nil {
				event.Emit("notifications", "user.offline", body, true)
			}
		}

		client.On("go-online", func(args ...interface{}) {
			id := userID()
			if id == 0 {
				return
			}
			registry.Connect(id)
			socketio.Broadcast("add-online-user", PresenceEvent{Id: id})
			if body, err := json.Marshal(PresenceEvent{Id: id}); err == nil {
				event.Emit("notifications", "user.online", body, true)
			}
		})

		client.On("new-message", func(args ...interface{}) {
			if userID() == 0 || len(args) == 0 {
				return
			}
			payload, ok := args[0].(map[string]interface{})
			if !ok {
				return
			}
			recipient, ok := payload["recipientId"].(float64)
			if !ok {
				return
			}
			socketio.Emit(strconv.FormatUint(uint64(recipient), 10), "new-message", payload)
		})

		client.On("logout", func(args ...interface{}) {
			goOffline()
		})

		client.On("disconnect", func(args ...interface{}) {
			goOffline()
		})
	})
}
