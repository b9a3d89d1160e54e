package handler

// BroadcastBattleEvent implements service.Broadcaster using the local
// WebSocket hub. In multi-process deployments the Redis event bus wraps
// this so events reach every process's hub.
func (h *Hub) BroadcastBattleEvent(battleID string, eventType string, data any) {
	h.BroadcastToBattle(battleID, WSEvent{
		Type:     eventType,
		BattleID: battleID,
		Data:     data,
	})
}
