package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

var ErrStatsNotFound = errors.New("user stats not found")

// StatsService maintains per-user counters for solo and battle play.
type StatsService struct {
	statsRepo repository.StatsRepository
}

// NewStatsService creates a StatsService.
func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// CreateUserStats inserts a default stats row for a new user. Returns
// the existing row instead of failing when one is already present.
func (s *StatsService) CreateUserStats(ctx context.Context, userID, displayName string) (*model.Stats, bool, error) {
	existing, err := s.statsRepo.Find(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	st := &model.Stats{UserID: userID, DisplayName: displayName}
	if err := s.statsRepo.Create(ctx, st); err != nil {
		return nil, false, err
	}
	return st, false, nil
}

// GetUserStats fetches a user's stats, lazily resetting the solo streak
// when the last solo play was two or more days ago.
func (s *StatsService) GetUserStats(ctx context.Context, userID string) (*model.Stats, error) {
	st, err := s.statsRepo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}

	if st.LastSeenSolo != nil && st.StreakCountSolo != 0 {
		if daysBetween(*st.LastSeenSolo, time.Now()) >= 2 {
			st.StreakCountSolo = 0
			if err := s.statsRepo.Update(ctx, st); err != nil {
				return nil, err
			}
		}
	}
	return st, nil
}

// UserStatsUpdate carries solo-play stat changes. Counter fields are
// increments; fastest times are lower-is-better candidates; LastSeenSolo
// drives the streak bookkeeping.
type UserStatsUpdate struct {
	NumSoloGames    int        `json:"num_solo_games"`
	NumCompleteSolo int        `json:"num_complete_solo"`
	FastestSoloTime int        `json:"fastest_solo_time"`
	StreakCountSolo *int       `json:"streak_count_solo"`
	LastSeenSolo    *time.Time `json:"dt_last_seen_solo"`
}

// UpdateUserStats applies a solo-play update: counters increment,
// fastest times only improve, and the streak increments on consecutive-
// day play, resets to 1 after a gap, and is untouched on same-day play.
func (s *StatsService) UpdateUserStats(ctx context.Context, userID string, upd UserStatsUpdate) (*model.Stats, error) {
	st, err := s.statsRepo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStatsNotFound
	}

	if upd.StreakCountSolo != nil {
		st.StreakCountSolo = *upd.StreakCountSolo
	}
	if upd.LastSeenSolo != nil {
		if st.LastSeenSolo == nil {
			st.StreakCountSolo = 1
		} else {
			switch days := daysBetween(*st.LastSeenSolo, *upd.LastSeenSolo); {
			case days == 1:
				st.StreakCountSolo++
			case days > 1:
				st.StreakCountSolo = 1
			}
		}
		seen := *upd.LastSeenSolo
		st.LastSeenSolo = &seen
	}

	st.NumSoloGames += upd.NumSoloGames
	st.NumCompleteSolo += upd.NumCompleteSolo
	st.FastestSoloTime = betterTime(st.FastestSoloTime, upd.FastestSoloTime)

	if err := s.statsRepo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// BattleStatsUpdate carries one user's view of a finished battle.
type BattleStatsUpdate struct {
	WinnerID          *string `json:"winner_id"`
	FastestBattleTime int     `json:"fastest_battle_time"`
}

// UpdateBattleStats applies a battle outcome for one registered user:
// games played always increments; the winner gains a win, a streak step
// and a fastest-time candidate; the loser's win streak resets.
func (s *StatsService) UpdateBattleStats(ctx context.Context, userID string, upd BattleStatsUpdate) (*model.Stats, error) {
	st, err := s.statsRepo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStatsNotFound
	}

	st.NumBattleGames++
	now := time.Now()
	st.LastSeenBattle = &now

	if upd.WinnerID != nil && *upd.WinnerID == userID {
		st.NumWinsBattle++
		st.StreakCountBattle++
		st.FastestBattleTime = betterTime(st.FastestBattleTime, upd.FastestBattleTime)
	} else {
		st.StreakCountBattle = 0
	}

	if err := s.statsRepo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// RecordBattleOutcome updates stats for every registered participant of
// a completed battle. Guests carry no stats. Missing stats rows are
// skipped rather than failed: outcome recording is best effort.
func (s *StatsService) RecordBattleOutcome(ctx context.Context, b *model.Battle) error {
	seconds := 0
	if b.StartedAt != nil && b.CompletedAt != nil {
		seconds = int(b.CompletedAt.Sub(*b.StartedAt).Seconds())
	}
	upd := BattleStatsUpdate{WinnerID: b.WinnerID, FastestBattleTime: seconds}

	participants := []string{b.Player1ID}
	if b.Player2ID != nil {
		participants = append(participants, *b.Player2ID)
	}

	for _, userID := range participants {
		if _, err := s.UpdateBattleStats(ctx, userID, upd); err != nil {
			if errors.Is(err, ErrStatsNotFound) {
				log.Warn().Str("userId", userID).Str("battleId", b.ID).Msg("No stats row for battle participant")
				continue
			}
			return err
		}
	}
	return nil
}

// betterTime keeps the lower positive time; 0 means no recorded time.
func betterTime(old, candidate int) int {
	if candidate <= 0 {
		return old
	}
	if old <= 0 || candidate < old {
		return candidate
	}
	return old
}

// daysBetween compares calendar dates only.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
