package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

// BattleRepo handles battle database operations.
type BattleRepo struct {
	db *sql.DB
}

// NewBattleRepo creates a BattleRepo.
func NewBattleRepo(db *sql.DB) *BattleRepo {
	return &BattleRepo{db: db}
}

const battleColumns = `id, player1_id, player2_id, player2_is_guest, status, puzzle_date,
	player1_ready, player2_ready, started_at, completed_at, winner_id,
	player1_completed_at, player2_completed_at, created_at`

// Create inserts a new WAITING battle for the given inviter.
func (r *BattleRepo) Create(ctx context.Context, player1ID, puzzleDate string) (*model.Battle, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO battles (player1_id, status, puzzle_date)
		 VALUES ($1, 'WAITING', $2)
		 RETURNING `+battleColumns,
		player1ID, puzzleDate,
	)
	b, err := scanBattle(row)
	if err != nil {
		return nil, fmt.Errorf("create battle: %w", err)
	}
	return b, nil
}

// FindByID returns a battle by ID, or nil when absent.
func (r *BattleRepo) FindByID(ctx context.Context, id string) (*model.Battle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+battleColumns+` FROM battles WHERE id = $1`, id,
	)
	b, err := scanBattle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find battle: %w", err)
	}
	return b, nil
}

// JoinAsPlayer2 records the second party and moves the battle to READY.
func (r *BattleRepo) JoinAsPlayer2(ctx context.Context, battleID string, player2ID *string, isGuest bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE battles SET status = 'READY', player2_id = $2, player2_is_guest = $3
		 WHERE id = $1`,
		battleID, player2ID, isGuest,
	)
	if err != nil {
		return fmt.Errorf("join battle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("join battle rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("join battle: battle %s not found", battleID)
	}
	return nil
}

// SetReady marks one side's ready flag.
func (r *BattleRepo) SetReady(ctx context.Context, battleID, side string) error {
	col := "player1_ready"
	if side == repository.SidePlayer2 {
		col = "player2_ready"
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE battles SET `+col+` = true WHERE id = $1`, battleID,
	)
	if err != nil {
		return fmt.Errorf("set ready: %w", err)
	}
	return nil
}

// SetStarted moves the battle to IN_PROGRESS and records the start time.
func (r *BattleRepo) SetStarted(ctx context.Context, battleID string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE battles SET status = 'IN_PROGRESS', started_at = $2 WHERE id = $1`,
		battleID, startedAt,
	)
	if err != nil {
		return fmt.Errorf("set started: %w", err)
	}
	return nil
}

// CompleteInProgress moves the battle to COMPLETED iff it is still
// IN_PROGRESS. The conditional update makes the stated first-to-call-wins
// contract hold under concurrent completions.
func (r *BattleRepo) CompleteInProgress(ctx context.Context, battleID string, winnerID *string, side string, completedAt time.Time) (bool, error) {
	col := "player1_completed_at"
	if side == repository.SidePlayer2 {
		col = "player2_completed_at"
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE battles SET status = 'COMPLETED', completed_at = $2, winner_id = $3, `+col+` = $2
		 WHERE id = $1 AND status = 'IN_PROGRESS'`,
		battleID, completedAt, winnerID,
	)
	if err != nil {
		return false, fmt.Errorf("complete battle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete battle rows: %w", err)
	}
	return n == 1, nil
}

// Delete removes a battle. Used to roll back creation when the paired
// invite insert fails.
func (r *BattleRepo) Delete(ctx context.Context, battleID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM battles WHERE id = $1`, battleID)
	if err != nil {
		return fmt.Errorf("delete battle: %w", err)
	}
	return nil
}

// DeleteStaleWaiting removes WAITING battles created before the cutoff.
func (r *BattleRepo) DeleteStaleWaiting(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM battles WHERE status = 'WAITING' AND created_at < $1`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale battles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale rows: %w", err)
	}
	return n, nil
}

func scanBattle(row *sql.Row) (*model.Battle, error) {
	var b model.Battle
	var player2ID, winnerID sql.NullString
	var startedAt, completedAt, p1Done, p2Done sql.NullTime
	err := row.Scan(&b.ID, &b.Player1ID, &player2ID, &b.Player2IsGuest, &b.Status, &b.PuzzleDate,
		&b.Player1Ready, &b.Player2Ready, &startedAt, &completedAt, &winnerID,
		&p1Done, &p2Done, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if player2ID.Valid {
		id := player2ID.String
		b.Player2ID = &id
	}
	if winnerID.Valid {
		id := winnerID.String
		b.WinnerID = &id
	}
	if startedAt.Valid {
		b.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	if p1Done.Valid {
		b.Player1CompletedAt = &p1Done.Time
	}
	if p2Done.Valid {
		b.Player2CompletedAt = &p2Done.Time
	}
	return &b, nil
}
