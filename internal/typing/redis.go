package typing

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisForwarder mirrors typing signals into a TTL'd Redis set per
// conversation, so sibling clients on the same deployment can read
// presence without a round trip to the chat backend.
type RedisForwarder struct {
	client *goredis.Client
	userID string
	ttl    time.Duration
}

func NewRedisForwarder(client *goredis.Client, userID string, ttl time.Duration) *RedisForwarder {
	if ttl == 0 {
		ttl = 10 * time.Second
	}
	return &RedisForwarder{
		client: client,
		userID: userID,
		ttl:    ttl,
	}
}

func (f *RedisForwarder) ForwardTyping(ctx context.Context, conversationID string, isTyping bool) error {
	key := fmt.Sprintf("typing:%s", conversationID)

	if isTyping {
		pipe := f.client.Pipeline()
		pipe.SAdd(ctx, key, f.userID)
		pipe.Expire(ctx, key, f.ttl)
		_, err := pipe.Exec(ctx)
		return err
	}

	return f.client.SRem(ctx, key, f.userID).Err()
}

// TypingUsers returns the users currently typing in a conversation.
func (f *RedisForwarder) TypingUsers(ctx context.Context, conversationID string) ([]string, error) {
	key := fmt.Sprintf("typing:%s", conversationID)
	return f.client.SMembers(ctx, key).Result()
}
