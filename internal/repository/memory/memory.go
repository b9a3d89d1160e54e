// Package memory provides an in-memory reference implementation of the
// repository interfaces. It is the store used by unit tests and is kept
// behaviorally identical to the postgres implementation by the shared
// contract suite in repotest.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

// Store holds invites, battles and stats behind a single mutex so the
// conditional-write primitives stay atomic under concurrent use.
type Store struct {
	mu      sync.Mutex
	invites map[string]*model.Invite
	battles map[string]*model.Battle
	stats   map[string]*model.Stats
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		invites: make(map[string]*model.Invite),
		battles: make(map[string]*model.Battle),
		stats:   make(map[string]*model.Stats),
	}
}

// Invites returns the store's InviteRepository view.
func (s *Store) Invites() repository.InviteRepository { return (*inviteStore)(s) }

// Battles returns the store's BattleRepository view.
func (s *Store) Battles() repository.BattleRepository { return (*battleStore)(s) }

// Stats returns the store's StatsRepository view.
func (s *Store) Stats() repository.StatsRepository { return (*statsStore)(s) }

type inviteStore Store

func (s *inviteStore) Create(_ context.Context, inv *model.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invites[inv.Token] = &cp
	return nil
}

func (s *inviteStore) FindByToken(_ context.Context, token string) (*model.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[token]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (s *inviteStore) AcceptActive(_ context.Context, token string, inviteeID *string, acceptedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[token]
	if !ok || inv.Status != model.InviteActive {
		return false, nil
	}
	inv.Status = model.InviteAccepted
	at := acceptedAt
	inv.AcceptedAt = &at
	inv.InviteeID = inviteeID
	return true, nil
}

func (s *inviteStore) MarkExpired(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invites[token]; ok && inv.Status == model.InviteActive {
		inv.Status = model.InviteExpired
	}
	return nil
}

func (s *inviteStore) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, inv := range s.invites {
		if inv.Status == model.InviteActive && inv.ExpiresAt.Before(now) {
			inv.Status = model.InviteExpired
			n++
		}
	}
	return n, nil
}

type battleStore Store

func (s *battleStore) Create(_ context.Context, player1ID, puzzleDate string) (*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &model.Battle{
		ID:         uuid.NewString(),
		Player1ID:  player1ID,
		Status:     model.BattleWaiting,
		PuzzleDate: puzzleDate,
		CreatedAt:  time.Now(),
	}
	s.battles[b.ID] = b
	cp := *b
	return &cp, nil
}

func (s *battleStore) FindByID(_ context.Context, id string) (*model.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *battleStore) JoinAsPlayer2(_ context.Context, battleID string, player2ID *string, isGuest bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok {
		return errNotFound(battleID)
	}
	b.Status = model.BattleReady
	b.Player2ID = player2ID
	b.Player2IsGuest = isGuest
	return nil
}

func (s *battleStore) SetReady(_ context.Context, battleID, side string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok {
		return errNotFound(battleID)
	}
	if side == repository.SidePlayer2 {
		b.Player2Ready = true
	} else {
		b.Player1Ready = true
	}
	return nil
}

func (s *battleStore) SetStarted(_ context.Context, battleID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok {
		return errNotFound(battleID)
	}
	b.Status = model.BattleInProgress
	at := startedAt
	b.StartedAt = &at
	return nil
}

func (s *battleStore) CompleteInProgress(_ context.Context, battleID string, winnerID *string, side string, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[battleID]
	if !ok || b.Status != model.BattleInProgress {
		return false, nil
	}
	b.Status = model.BattleCompleted
	at := completedAt
	b.CompletedAt = &at
	b.WinnerID = winnerID
	if side == repository.SidePlayer2 {
		b.Player2CompletedAt = &at
	} else {
		b.Player1CompletedAt = &at
	}
	return true, nil
}

func (s *battleStore) Delete(_ context.Context, battleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, battleID)
	return nil
}

func (s *battleStore) DeleteStaleWaiting(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.battles {
		if b.Status == model.BattleWaiting && b.CreatedAt.Before(before) {
			delete(s.battles, id)
			n++
		}
	}
	return n, nil
}

type statsStore Store

func (s *statsStore) Find(_ context.Context, userID string) (*model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *statsStore) Create(_ context.Context, st *model.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.stats[st.UserID] = &cp
	return nil
}

func (s *statsStore) Update(_ context.Context, st *model.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stats[st.UserID]; !ok {
		return errNotFound(st.UserID)
	}
	cp := *st
	s.stats[st.UserID] = &cp
	return nil
}

type errNotFound string

func (e errNotFound) Error() string { return "memory store: " + string(e) + " not found" }
