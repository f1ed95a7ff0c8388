package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/frontdesk/internal/events"
)

// ChangesPubSub is an events.Bus shared by every replica through one Redis channel.
type ChangesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewChangesPubSub(rdb *redis.Client) *ChangesPubSub {
	return &ChangesPubSub{
		rdb:     rdb,
		channel: ChannelChanges(),
	}
}

var _ events.Bus = (*ChangesPubSub)(nil)

func (p *ChangesPubSub) Publish(ctx context.Context, c events.Change) error {
	if c.TsUnix == 0 {
		c.TsUnix = time.Now().Unix()
	}

	b, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ChangesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, c events.Change)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var c events.Change
			if err := json.Unmarshal([]byte(m.Payload), &c); err == nil && c.Kind != "" {
				handler(ctx, c)
			}
		}
	}
}
