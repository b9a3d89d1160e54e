package service

import (
	"context"
	"errors"
	"sync"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
	"github.com/crosswars/api/internal/repository/memory"
)

// recordedEvent is one broadcast captured by mockBroadcaster.
type recordedEvent struct {
	battleID  string
	eventType string
	data      any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *mockBroadcaster) BroadcastBattleEvent(battleID, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{battleID: battleID, eventType: eventType, data: data})
}

func (m *mockBroadcaster) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.eventType
	}
	return types
}

type mockOutcomes struct {
	mu      sync.Mutex
	battles []*model.Battle
}

func (m *mockOutcomes) RecordBattleOutcome(_ context.Context, b *model.Battle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.battles = append(m.battles, b)
	return nil
}

// failingInviteRepo makes every insert fail, for rollback tests.
type failingInviteRepo struct {
	repository.InviteRepository
}

func (f *failingInviteRepo) Create(_ context.Context, _ *model.Invite) error {
	return errors.New("insert failed")
}

func newTestStore() *memory.Store {
	return memory.NewStore()
}
