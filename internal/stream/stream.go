// Package stream publishes to and consumes from Redis Streams.
package stream

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/redis/rueidis"
)

// Message is a single stream entry.
type Message struct {
	ID     string
	Fields map[string]string
}

// Client wraps a rueidis client with the stream commands the audit pipeline uses.
type Client struct {
	redis rueidis.Client
}

// NewClient connects to the Redis server at addr.
func NewClient(addr string) (*Client, error) {
	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, err
	}

	return &Client{redis: redisClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.redis.Close()
}

// Publish appends fields to stream and returns the generated entry ID.
// Fields are written in key order.
func (c *Client) Publish(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := c.redis.B().Xadd().Key(stream).Id("*").FieldValue()
	for _, key := range sortedKeys(fields) {
		cmd = cmd.FieldValue(key, fields[key])
	}

	return c.redis.Do(ctx, cmd.Build()).ToString()
}

// EnsureGroup creates the consumer group, and the stream if needed.
// An existing group is not an error.
func (c *Client) EnsureGroup(ctx context.Context, stream, group string) error {
	cmd := c.redis.B().XgroupCreate().Key(stream).Group(group).Id("0").Mkstream().Build()
	if err := c.redis.Do(ctx, cmd).Error(); err != nil && !isBusyGroup(err) {
		return err
	}

	return nil
}

// ReadGroup reads up to count new entries for consumer, waiting at most block.
// A timeout returns no messages and no error.
func (c *Client) ReadGroup(
	ctx context.Context,
	stream, group, consumer string,
	count int64,
	block time.Duration,
) ([]Message, error) {
	cmd := c.redis.B().Xreadgroup().Group(group, consumer).
		Count(count).
		Block(block.Milliseconds()).
		Streams().
		Key(stream).
		Id(">").
		Build()

	streams, err := c.redis.Do(ctx, cmd).AsXRead()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}

		return nil, err
	}

	entries := streams[stream]
	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, Message{ID: entry.ID, Fields: entry.FieldValues})
	}

	return messages, nil
}

// Ack acknowledges a processed entry.
func (c *Client) Ack(ctx context.Context, stream, group, id string) error {
	cmd := c.redis.B().Xack().Key(stream).Group(group).Id(id).Build()

	return c.redis.Do(ctx, cmd).Error()
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}
