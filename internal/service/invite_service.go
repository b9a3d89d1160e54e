package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

var (
	ErrInviteNotFound  = errors.New("invite not found")
	ErrInviteExpired   = errors.New("invite has expired")
	ErrSelfAccept      = errors.New("you cannot accept your own invite")
	ErrAlreadyAccepted = errors.New("invite has already been accepted")
)

// InviteService owns the invite ledger: creating single-use invite
// tokens bound to pending battles and running the concurrency-safe
// acceptance protocol.
type InviteService struct {
	inviteRepo  repository.InviteRepository
	battleRepo  repository.BattleRepository
	broadcaster Broadcaster
}

// NewInviteService creates an InviteService.
func NewInviteService(inviteRepo repository.InviteRepository, battleRepo repository.BattleRepository, broadcaster Broadcaster) *InviteService {
	return &InviteService{inviteRepo: inviteRepo, battleRepo: battleRepo, broadcaster: broadcaster}
}

// CreateResult is the outcome of CreateInvite.
type CreateResult struct {
	Token    string
	BattleID string
}

// CreateInvite creates a WAITING battle and an ACTIVE invite bound to
// it. The invite expires at the end of the current calendar day. If the
// invite insert fails after the battle insert succeeded, the battle is
// rolled back with a compensating delete so no orphan WAITING battles
// survive.
func (s *InviteService) CreateInvite(ctx context.Context, inviterID string) (*CreateResult, error) {
	token, err := newInviteToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}

	now := time.Now()
	battle, err := s.battleRepo.Create(ctx, inviterID, now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	inv := &model.Invite{
		Token:     token,
		InviterID: inviterID,
		BattleID:  battle.ID,
		Status:    model.InviteActive,
		ExpiresAt: endOfDay(now),
		CreatedAt: now,
	}
	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		if delErr := s.battleRepo.Delete(ctx, battle.ID); delErr != nil {
			log.Error().Err(delErr).Str("battleId", battle.ID).Msg("Failed to roll back battle after invite insert failure")
		}
		return nil, err
	}

	return &CreateResult{Token: token, BattleID: battle.ID}, nil
}

// AcceptResult is the outcome of AcceptInvite.
type AcceptResult struct {
	BattleID string
	IsGuest  bool
}

// AcceptInvite resolves an invite token for the given caller. Exactly
// one acceptance per invite succeeds regardless of how many concurrent
// callers race on the same token: the ACTIVE -> ACCEPTED transition is a
// single conditional write linearized by the store, and only its winner
// goes on to move the bound battle to READY.
func (s *InviteService) AcceptInvite(ctx context.Context, token string, caller Caller) (*AcceptResult, error) {
	inv, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}

	now := time.Now()
	if inv.Status == model.InviteExpired || now.After(inv.ExpiresAt) {
		// Lazy expiry flip. Best effort: the caller gets the expiry
		// error whether or not this write lands.
		if inv.Status == model.InviteActive {
			if err := s.inviteRepo.MarkExpired(ctx, token); err != nil {
				log.Warn().Err(err).Str("battleId", inv.BattleID).Msg("Failed to mark invite expired")
			}
		}
		return nil, ErrInviteExpired
	}

	if !caller.Guest && caller.UserID == inv.InviterID {
		return nil, ErrSelfAccept
	}

	// invitee_id is only recorded for registered accepters.
	var inviteeID *string
	if !caller.Guest {
		id := caller.UserID
		inviteeID = &id
	}

	won, err := s.inviteRepo.AcceptActive(ctx, token, inviteeID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyAccepted
	}

	// Only the CAS winner reaches this write, so it needs no guard of
	// its own. A failure here leaves an accepted invite without a READY
	// battle; flag it loudly instead of recovering silently.
	if err := s.battleRepo.JoinAsPlayer2(ctx, inv.BattleID, inviteeID, caller.Guest); err != nil {
		log.Error().Err(err).Str("battleId", inv.BattleID).Msg("Invite accepted but battle update failed (data inconsistency)")
		return nil, fmt.Errorf("battle update after acceptance: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBattleEvent(inv.BattleID, EventPlayerJoined, map[string]any{
			"battle_id": inv.BattleID,
			"is_guest":  caller.Guest,
		})
	}

	return &AcceptResult{BattleID: inv.BattleID, IsGuest: caller.Guest}, nil
}

// newInviteToken returns a cryptographically random URL-safe token with
// 128 bits of entropy.
func newInviteToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// endOfDay returns the last instant of t's calendar day in local time.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999000, t.Location())
}
