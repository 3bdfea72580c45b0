package presence

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisOnlineKey = "presence:online"

// Redis keeps the online set in Redis so every node behind the socket.io
// redis adapter sees the same presence facts.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Connect(userID uint) {
	if err := r.client.SAdd(context.Background(), redisOnlineKey, member(userID)).Err(); err != nil {
		log.Printf("presence: connect %d: %v", userID, err)
	}
}

func (r *Redis) Disconnect(userID uint) {
	if err := r.client.SRem(context.Background(), redisOnlineKey, member(userID)).Err(); err != nil {
		log.Printf("presence: disconnect %d: %v", userID, err)
	}
}

func (r *Redis) IsOnline(userID uint) bool {
	online, err := r.client.SIsMember(context.Background(), redisOnlineKey, member(userID)).Result()
	if err != nil {
		log.Printf("presence: lookup %d: %v", userID, err)
		return false
	}
	return online
}

func member(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
