package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.RedemptionRepository = (*redemptionRepo)(nil)

type redemptionRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepo(pool *pgxpool.Pool) repository.RedemptionRepository {
	return &redemptionRepo{pool: pool}
}

// Insert records a redemption. The (telegram_id, code) unique constraint is
// the authoritative at-most-once guard; violations map to
// domain.ErrAlreadyExists so a lost race reads as a duplicate attempt.
func (r *redemptionRepo) Insert(ctx context.Context, tx repository.Tx, red *model.Redemption) error {
	const q = `
INSERT INTO redemptions (id, telegram_id, code, redeemed_at)
VALUES ($1,$2,$3,$4);
`
	_, err := execSQL(ctx, r.pool, tx, q, red.ID, red.TelegramID, red.Code, red.RedeemedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

func (r *redemptionRepo) Exists(ctx context.Context, tx repository.Tx, tgID int64, code string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM redemptions WHERE telegram_id=$1 AND code=$2);`, tgID, code)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check redemption: %w", err)
	}
	return exists, nil
}

func (r *redemptionRepo) CountRedemptions(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM redemptions;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}
