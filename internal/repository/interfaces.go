package repository

import (
	"context"
	"time"

	"github.com/crosswars/api/internal/model"
)

// Battle sides.
const (
	SidePlayer1 = "player1"
	SidePlayer2 = "player2"
)

// InviteRepository defines invite data operations.
//
// AcceptActive is the concurrency-critical primitive: it applies the
// ACTIVE -> ACCEPTED transition as a single conditional write and
// reports whether this call won. Two simultaneous accept attempts
// against the same token are linearized by the store itself, never by
// application-level locking.
type InviteRepository interface {
	Create(ctx context.Context, inv *model.Invite) error
	FindByToken(ctx context.Context, token string) (*model.Invite, error)
	// AcceptActive flips the invite to ACCEPTED iff it is still ACTIVE.
	// inviteeID is nil for guest accepters. Returns false when another
	// acceptance already won.
	AcceptActive(ctx context.Context, token string, inviteeID *string, acceptedAt time.Time) (bool, error)
	// MarkExpired records the lazy ACTIVE -> EXPIRED flip.
	MarkExpired(ctx context.Context, token string) error
	// ExpireOverdue marks every ACTIVE invite past its expiry. Used by
	// the daily purge.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// BattleRepository defines battle data operations.
type BattleRepository interface {
	Create(ctx context.Context, player1ID, puzzleDate string) (*model.Battle, error)
	FindByID(ctx context.Context, id string) (*model.Battle, error)
	// JoinAsPlayer2 populates the player2 fields and moves the battle to
	// READY. Not conditionally guarded: the invite CAS is the sole
	// serialization point for joins.
	JoinAsPlayer2(ctx context.Context, battleID string, player2ID *string, isGuest bool) error
	SetReady(ctx context.Context, battleID, side string) error
	SetStarted(ctx context.Context, battleID string, startedAt time.Time) error
	// CompleteInProgress moves the battle to COMPLETED iff it is still
	// IN_PROGRESS, recording the winner and the finishing side's
	// timestamp. Returns false when another completion already won.
	CompleteInProgress(ctx context.Context, battleID string, winnerID *string, side string, completedAt time.Time) (bool, error)
	Delete(ctx context.Context, battleID string) error
	// DeleteStaleWaiting removes WAITING battles created before the
	// cutoff. Used by the daily purge; never touches READY or later.
	DeleteStaleWaiting(ctx context.Context, before time.Time) (int64, error)
}

// StatsRepository defines per-user stats operations.
type StatsRepository interface {
	Find(ctx context.Context, userID string) (*model.Stats, error)
	Create(ctx context.Context, s *model.Stats) error
	Update(ctx context.Context, s *model.Stats) error
}

// PuzzleCache holds the latest generated crossword (Redis).
type PuzzleCache interface {
	SetLatest(ctx context.Context, p *model.Puzzle, ttl time.Duration) error
	GetLatest(ctx context.Context) (*model.Puzzle, error)
}
