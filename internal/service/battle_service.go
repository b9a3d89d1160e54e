package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

var (
	ErrBattleNotFound    = errors.New("battle not found")
	ErrNotParticipant    = errors.New("you are not part of this battle")
	ErrGuestAccessDenied = errors.New("guest access denied for this battle")
	ErrInvalidState      = errors.New("battle not in a valid state")
	ErrPlayersNotReady   = errors.New("both players must be ready before starting")
)

// OutcomeRecorder consumes battle-completion outcomes (the stats ledger).
type OutcomeRecorder interface {
	RecordBattleOutcome(ctx context.Context, b *model.Battle) error
}

// BattleService drives the battle lifecycle WAITING -> READY ->
// IN_PROGRESS -> COMPLETED. Every operation re-fetches the battle,
// verifies the caller is a participant and is safe to retry thanks to
// its idempotent terminal-state checks. There is no in-process locking:
// requests may be served by independent processes, so correctness under
// concurrency rests on the store's conditional-write primitives.
type BattleService struct {
	battleRepo  repository.BattleRepository
	outcomes    OutcomeRecorder
	broadcaster Broadcaster
}

// NewBattleService creates a BattleService.
func NewBattleService(battleRepo repository.BattleRepository, outcomes OutcomeRecorder, broadcaster Broadcaster) *BattleService {
	return &BattleService{battleRepo: battleRepo, outcomes: outcomes, broadcaster: broadcaster}
}

// GetBattle fetches a battle by ID.
func (s *BattleService) GetBattle(ctx context.Context, battleID string) (*model.Battle, error) {
	b, err := s.battleRepo.FindByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBattleNotFound
	}
	return b, nil
}

// participantSide determines which side of the battle the caller
// occupies. Registered callers must match player1 or player2; a guest
// caller is allowed only into guest battles and always acts as player2.
func participantSide(b *model.Battle, caller Caller) (string, error) {
	if caller.Guest {
		if !b.Player2IsGuest {
			return "", ErrGuestAccessDenied
		}
		return repository.SidePlayer2, nil
	}
	if caller.UserID == b.Player1ID {
		return repository.SidePlayer1, nil
	}
	if b.Player2ID != nil && caller.UserID == *b.Player2ID {
		return repository.SidePlayer2, nil
	}
	return "", ErrNotParticipant
}

// MarkReady sets the caller's ready flag. Marking ready twice is a
// no-op success. WAITING is accepted defensively as joinable even though
// in practice ready-marking only happens after acceptance moved the
// battle to READY.
func (s *BattleService) MarkReady(ctx context.Context, battleID string, caller Caller) (string, error) {
	b, err := s.GetBattle(ctx, battleID)
	if err != nil {
		return "", err
	}

	if b.Status != model.BattleWaiting && b.Status != model.BattleReady {
		return "", fmt.Errorf("%w: battle not in a joinable state", ErrInvalidState)
	}

	side, err := participantSide(b, caller)
	if err != nil {
		return "", err
	}

	if err := s.battleRepo.SetReady(ctx, battleID, side); err != nil {
		return "", err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBattleEvent(battleID, EventPlayerReady, map[string]any{"player": side})
	}
	return side, nil
}

// StartResult is the outcome of Start.
type StartResult struct {
	StartedAt      time.Time
	AlreadyStarted bool
}

// Start moves a READY battle with both players ready to IN_PROGRESS.
// Calling Start on a battle that is already in progress succeeds
// idempotently with the existing start time.
func (s *BattleService) Start(ctx context.Context, battleID string, caller Caller) (*StartResult, error) {
	b, err := s.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}

	if _, err := participantSide(b, caller); err != nil {
		return nil, err
	}

	if b.Status == model.BattleInProgress {
		res := &StartResult{AlreadyStarted: true}
		if b.StartedAt != nil {
			res.StartedAt = *b.StartedAt
		}
		return res, nil
	}

	if b.Status != model.BattleReady {
		return nil, fmt.Errorf("%w: battle not in a startable state, current status: %s", ErrInvalidState, b.Status)
	}

	if !b.Player1Ready || !b.Player2Ready {
		return nil, fmt.Errorf("%w (player1_ready: %t, player2_ready: %t)", ErrPlayersNotReady, b.Player1Ready, b.Player2Ready)
	}

	startedAt := time.Now()
	if err := s.battleRepo.SetStarted(ctx, battleID, startedAt); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBattleEvent(battleID, EventBattleStarted, map[string]any{
			"started_at": startedAt,
		})
	}
	return &StartResult{StartedAt: startedAt}, nil
}

// CompleteResult is the outcome of Complete.
type CompleteResult struct {
	CompletedAt      time.Time
	WinnerID         *string // nil for guest winners and ties
	Winner           string  // "player1" or "player2"
	IsTie            bool
	AlreadyCompleted bool
}

// Complete declares the calling participant the winner: there is no
// server-side elapsed-time comparison, the race to call this endpoint is
// the race to win. The COMPLETED transition is a conditional write on
// the battle still being IN_PROGRESS, so under truly simultaneous
// completions the first write wins and the loser receives the winner's
// result idempotently.
func (s *BattleService) Complete(ctx context.Context, battleID string, caller Caller) (*CompleteResult, error) {
	b, err := s.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}

	side, err := participantSide(b, caller)
	if err != nil {
		return nil, err
	}

	if b.Status == model.BattleCompleted {
		return completedResult(b), nil
	}
	if b.Status != model.BattleInProgress {
		return nil, fmt.Errorf("%w: battle not in progress, current status: %s", ErrInvalidState, b.Status)
	}

	// Guest winners have no stable identity to record.
	var winnerID *string
	if !caller.Guest {
		id := caller.UserID
		winnerID = &id
	}

	completedAt := time.Now()
	won, err := s.battleRepo.CompleteInProgress(ctx, battleID, winnerID, side, completedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the completion race; surface whoever did win.
		b, err = s.GetBattle(ctx, battleID)
		if err != nil {
			return nil, err
		}
		if b.Status != model.BattleCompleted {
			return nil, fmt.Errorf("%w: battle not in progress, current status: %s", ErrInvalidState, b.Status)
		}
		return completedResult(b), nil
	}

	done, err := s.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}

	if s.outcomes != nil {
		if err := s.outcomes.RecordBattleOutcome(ctx, done); err != nil {
			log.Error().Err(err).Str("battleId", battleID).Msg("Failed to record battle outcome")
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBattleEvent(battleID, EventBattleCompleted, map[string]any{
			"completed_at": completedAt,
			"winner":       side,
			"winner_id":    winnerID,
		})
	}

	return &CompleteResult{
		CompletedAt: completedAt,
		WinnerID:    winnerID,
		Winner:      side,
	}, nil
}

// completedResult builds the idempotent payload for a battle that has
// already reached COMPLETED.
func completedResult(b *model.Battle) *CompleteResult {
	res := &CompleteResult{
		WinnerID:         b.WinnerID,
		IsTie:            b.WinnerID == nil && !b.Player2IsGuest,
		AlreadyCompleted: true,
	}
	if b.CompletedAt != nil {
		res.CompletedAt = *b.CompletedAt
	}
	switch {
	case b.WinnerID != nil && *b.WinnerID == b.Player1ID:
		res.Winner = repository.SidePlayer1
	case b.WinnerID != nil:
		res.Winner = repository.SidePlayer2
	case b.Player2IsGuest:
		// A nil winner on a guest battle means the guest won.
		res.Winner = repository.SidePlayer2
	}
	return res
}
