package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/repository"
)

// PurgeService is the daily cleanup job: overdue ACTIVE invites are
// marked EXPIRED and WAITING battles past the retention window are
// deleted. Battles that reached READY or later are never touched.
type PurgeService struct {
	inviteRepo repository.InviteRepository
	battleRepo repository.BattleRepository
	retention  time.Duration
	interval   time.Duration
}

// NewPurgeService creates a PurgeService with a 48h retention window for
// unaccepted battles.
func NewPurgeService(inviteRepo repository.InviteRepository, battleRepo repository.BattleRepository) *PurgeService {
	return &PurgeService{
		inviteRepo: inviteRepo,
		battleRepo: battleRepo,
		retention:  48 * time.Hour,
		interval:   24 * time.Hour,
	}
}

// Start runs the purge loop until the context is cancelled. The first
// pass runs immediately so a restart never postpones cleanup by a day.
func (s *PurgeService) Start(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge pass.
func (s *PurgeService) RunOnce(ctx context.Context) {
	now := time.Now()

	expired, err := s.inviteRepo.ExpireOverdue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Purge: failed to expire overdue invites")
	} else if expired > 0 {
		log.Info().Int64("count", expired).Msg("Purge: expired overdue invites")
	}

	deleted, err := s.battleRepo.DeleteStaleWaiting(ctx, now.Add(-s.retention))
	if err != nil {
		log.Error().Err(err).Msg("Purge: failed to delete stale battles")
	} else if deleted > 0 {
		log.Info().Int64("count", deleted).Msg("Purge: deleted stale waiting battles")
	}
}
