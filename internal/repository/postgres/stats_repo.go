package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crosswars/api/internal/model"
)

// StatsRepo handles per-user stats database operations.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo creates a StatsRepo.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Find returns a user's stats row, or nil when absent.
func (r *StatsRepo) Find(ctx context.Context, userID string) (*model.Stats, error) {
	var s model.Stats
	var lastSolo, lastBattle sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, num_solo_games, num_battle_games, num_complete_solo,
		        num_wins_battle, fastest_solo_time, fastest_battle_time,
		        streak_count_solo, streak_count_battle, dt_last_seen_solo, dt_last_seen_battle
		 FROM stats WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &s.DisplayName, &s.NumSoloGames, &s.NumBattleGames, &s.NumCompleteSolo,
		&s.NumWinsBattle, &s.FastestSoloTime, &s.FastestBattleTime,
		&s.StreakCountSolo, &s.StreakCountBattle, &lastSolo, &lastBattle)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find stats: %w", err)
	}
	if lastSolo.Valid {
		s.LastSeenSolo = &lastSolo.Time
	}
	if lastBattle.Valid {
		s.LastSeenBattle = &lastBattle.Time
	}
	return &s, nil
}

// Create inserts a new stats row.
func (r *StatsRepo) Create(ctx context.Context, s *model.Stats) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stats (user_id, display_name, num_solo_games, num_battle_games, num_complete_solo,
		                    num_wins_battle, fastest_solo_time, fastest_battle_time,
		                    streak_count_solo, streak_count_battle, dt_last_seen_solo, dt_last_seen_battle)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.UserID, s.DisplayName, s.NumSoloGames, s.NumBattleGames, s.NumCompleteSolo,
		s.NumWinsBattle, s.FastestSoloTime, s.FastestBattleTime,
		s.StreakCountSolo, s.StreakCountBattle, s.LastSeenSolo, s.LastSeenBattle,
	)
	if err != nil {
		return fmt.Errorf("create stats: %w", err)
	}
	return nil
}

// Update writes back the full stats row.
func (r *StatsRepo) Update(ctx context.Context, s *model.Stats) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stats SET display_name = $2, num_solo_games = $3, num_battle_games = $4,
		        num_complete_solo = $5, num_wins_battle = $6, fastest_solo_time = $7,
		        fastest_battle_time = $8, streak_count_solo = $9, streak_count_battle = $10,
		        dt_last_seen_solo = $11, dt_last_seen_battle = $12
		 WHERE user_id = $1`,
		s.UserID, s.DisplayName, s.NumSoloGames, s.NumBattleGames, s.NumCompleteSolo,
		s.NumWinsBattle, s.FastestSoloTime, s.FastestBattleTime,
		s.StreakCountSolo, s.StreakCountBattle, s.LastSeenSolo, s.LastSeenBattle,
	)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stats rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update stats: user %s not found", s.UserID)
	}
	return nil
}
