package listener

import (
	"encoding/json"
	"log"

	"chat-service/database"
	"chat-service/event"
	"chat-service/model"
)

var (
	AccountsChannel = make(chan event.EventChannelData)
)

type userUpdate struct {
	Id       uint   `json:"id"`
	Username string `json:"username"`
	PhotoUrl string `json:"photoUrl"`
}

// Accounts applies profile changes published by the accounts service, so
// usernames and photos in conversation snapshots stay current.
func Accounts() {
	for ev := range AccountsChannel {
		switch ev.Action {
		case "user.updated":
			update := userUpdate{}
			if err := json.Unmarshal(ev.Data, &update); err != nil {
				log.Printf("accounts: bad user.updated payload: %v", err)
				continue
			}

			columns := map[string]interface{}{}
			if update.Username != "" {
				columns["username"] = update.Username
			}
			if update.PhotoUrl != "" {
				columns["photo_url"] = update.PhotoUrl
			}
			if len(columns) == 0 {
				continue
			}

			if err := database.Postgres.
				Model(&model.User{}).
				Where("id = ?", update.Id).
				Updates(columns).Error; err != nil {
				log.Printf("accounts: apply user.updated for %d: %v", update.Id, err)
			}
		default:
			log.Printf("accounts: unhandled action %s", ev.Action)
		}
	}
}
