package service

// Event types published on battle state changes.
const (
	EventPlayerJoined    = "player_joined"
	EventPlayerReady     = "player_ready"
	EventBattleStarted   = "battle_started"
	EventBattleCompleted = "battle_completed"
)

// Broadcaster delivers battle events to connected clients. Delivery is
// best effort; a failed broadcast never fails the state transition that
// produced it.
type Broadcaster interface {
	BroadcastBattleEvent(battleID, eventType string, data any)
}
