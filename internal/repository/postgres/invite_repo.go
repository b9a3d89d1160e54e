package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crosswars/api/internal/model"
)

// InviteRepo handles invite database operations.
type InviteRepo struct {
	db *sql.DB
}

// NewInviteRepo creates an InviteRepo.
func NewInviteRepo(db *sql.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

// Create inserts a new invite.
func (r *InviteRepo) Create(ctx context.Context, inv *model.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (invite_token, inviter_id, battle_id, status, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.Token, inv.InviterID, inv.BattleID, inv.Status, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// FindByToken returns an invite by its token, or nil when absent.
func (r *InviteRepo) FindByToken(ctx context.Context, token string) (*model.Invite, error) {
	var inv model.Invite
	var inviteeID sql.NullString
	var acceptedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT invite_token, inviter_id, battle_id, status, expires_at, accepted_at, invitee_id, created_at
		 FROM invites WHERE invite_token = $1`, token,
	).Scan(&inv.Token, &inv.InviterID, &inv.BattleID, &inv.Status, &inv.ExpiresAt, &acceptedAt, &inviteeID, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	if inviteeID.Valid {
		id := inviteeID.String
		inv.InviteeID = &id
	}
	return &inv, nil
}

// AcceptActive applies the ACTIVE -> ACCEPTED transition as a single
// conditional update. Exactly one concurrent caller observes a matched
// row; everyone else lost the race.
func (r *InviteRepo) AcceptActive(ctx context.Context, token string, inviteeID *string, acceptedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = 'ACCEPTED', accepted_at = $2, invitee_id = $3
		 WHERE invite_token = $1 AND status = 'ACTIVE'`,
		token, acceptedAt, inviteeID,
	)
	if err != nil {
		return false, fmt.Errorf("accept invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("accept invite rows: %w", err)
	}
	return n == 1, nil
}

// MarkExpired flips an invite to EXPIRED.
func (r *InviteRepo) MarkExpired(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = 'EXPIRED' WHERE invite_token = $1 AND status = 'ACTIVE'`,
		token,
	)
	if err != nil {
		return fmt.Errorf("mark invite expired: %w", err)
	}
	return nil
}

// ExpireOverdue marks every ACTIVE invite whose expiry has passed.
func (r *InviteRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue invites: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire overdue rows: %w", err)
	}
	return n, nil
}
