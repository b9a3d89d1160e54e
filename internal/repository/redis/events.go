package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const battleEventsChannel = "battle_events"

// battleEvent is the wire envelope published on the battle events channel.
type battleEvent struct {
	BattleID string          `json:"battle_id"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
}

// BroadcastBattleEvent publishes a battle event so every process can fan
// it out to its local WebSocket subscribers. Delivery is best effort;
// failures are logged, not surfaced, because realtime updates must never
// fail a state transition.
func (c *Client) BroadcastBattleEvent(battleID, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("battleId", battleID).Msg("Failed to marshal battle event")
		return
	}
	msg, err := json.Marshal(battleEvent{BattleID: battleID, Type: eventType, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("battleId", battleID).Msg("Failed to marshal battle event envelope")
		return
	}
	if err := c.rdb.Publish(context.Background(), battleEventsChannel, msg).Err(); err != nil {
		log.Error().Err(err).Str("battleId", battleID).Msg("Failed to publish battle event")
	}
}

// ListenBattleEvents subscribes to the battle events channel and invokes
// handle for every message until the context is cancelled. Intended to
// run as a goroutine per process, feeding the local WebSocket hub.
func (c *Client) ListenBattleEvents(ctx context.Context, handle func(battleID, eventType string, data json.RawMessage)) {
	sub := c.rdb.Subscribe(ctx, battleEventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				// go-redis reconnects transport errors itself; a closed
				// channel means the subscription died, so resubscribe.
				log.Warn().Msg("Battle event subscription closed, retrying")
				time.Sleep(time.Second)
				sub.Close()
				sub = c.rdb.Subscribe(ctx, battleEventsChannel)
				ch = sub.Channel()
				continue
			}
			var ev battleEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Error().Err(err).Msg("Failed to decode battle event")
				continue
			}
			handle(ev.BattleID, ev.Type, ev.Data)
		}
	}
}
