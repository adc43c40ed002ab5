package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
	base    *redis.Client
}

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client, base: client}
}

func (c *Client) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span, time.Time) {
	start := time.Now()
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+op,
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.String("redis.operation", op),
			attribute.String("redis.client", "verify-api"),
		),
	)
	return ctx, span, start
}

func endSpan(span trace.Span, start time.Time, err error) {
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	duration := time.Since(start)
	span.SetAttributes(
		attribute.Int64("redis.duration_ms", duration.Milliseconds()),
		attribute.String("redis.duration", duration.String()),
	)
	span.End()
}

// Get wraps Redis Get with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, span, start := c.startSpan(ctx, "get", key)
	cmd := c.cmdable.Get(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Set wraps Redis Set with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, span, start := c.startSpan(ctx, "set", key)
	span.SetAttributes(attribute.String("redis.ttl", expiration.String()))
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Del wraps Redis Del with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	ctx, span, start := c.startSpan(ctx, "del", key)
	span.SetAttributes(attribute.Int("redis.key_count", len(keys)))
	cmd := c.cmdable.Del(ctx, keys...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Exists wraps Redis Exists with tracing
func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	ctx, span, start := c.startSpan(ctx, "exists", key)
	cmd := c.cmdable.Exists(ctx, keys...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, span, start := c.startSpan(ctx, "ttl", key)
	cmd := c.cmdable.TTL(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Ping wraps Redis Ping with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, span, start := c.startSpan(ctx, "ping", "")
	cmd := c.cmdable.Ping(ctx)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Publish wraps Redis Publish with tracing
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	ctx, span, start := c.startSpan(ctx, "publish", channel)
	span.SetAttributes(attribute.String("redis.channel", channel))
	cmd := c.cmdable.Publish(ctx, channel, message)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Subscribe subscribes to the given channels. The returned PubSub must be
// closed by the caller.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.base.Subscribe(ctx, channels...)
}

// Pipeline returns a Redis pipeline
func (c *Client) Pipeline() redis.Pipeliner {
	return c.cmdable.Pipeline()
}

// PoolStats returns connection pool statistics
func (c *Client) PoolStats() *redis.PoolStats {
	if c.base == nil {
		return nil
	}
	return c.base.PoolStats()
}
