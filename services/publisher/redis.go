package publisher

import (
	"context"
	"encoding/base64"
	"hash/fnv"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on Redis streams. Comment pages are
// spread over streamCount streams named <prefix>:0 .. <prefix>:N-1 so several
// sentiment workers can consume in parallel; the stream for a message is
// picked by hashing the target key, which keeps every page of one attraction
// in a single stream and preserves its page order for the consumer.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Publish appends one comment-page message to the target's stream. The
// message is base64 encoded; the stream entry maps the target key to the
// encoded page so the consumer can decode without parsing entry ids.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.streamFor(key),
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// streamFor picks the stream for a target key: same key, same stream
func (p *RedisPublisher) streamFor(key string) string {
	n := 0
	if p.streamCount > 1 {
		h := fnv.New32a()
		h.Write([]byte(key))
		n = int(h.Sum32() % uint32(p.streamCount))
	}
	return p.streamPrefix + ":" + strconv.Itoa(n)
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err()
		if err != nil {
			return err
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
