package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.RedeemCodeRepository = (*redeemCodeRepo)(nil)

type redeemCodeRepo struct {
	pool *pgxpool.Pool
}

func NewRedeemCodeRepo(pool *pgxpool.Pool) repository.RedeemCodeRepository {
	return &redeemCodeRepo{pool: pool}
}

// Insert creates a code. Duplicate code strings map to domain.ErrAlreadyExists.
func (r *redeemCodeRepo) Insert(ctx context.Context, tx repository.Tx, code *model.RedeemCode) error {
	const q = `
INSERT INTO redeem_codes (code, expires_at, max_uses, uses, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6);
`
	_, err := execSQL(ctx, r.pool, tx, q, code.Code, code.ExpiresAt, code.MaxUses, code.Uses, code.CreatedBy, code.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert redeem code: %w", err)
	}
	return nil
}

// FindByCode reads a code row. Inside a transaction the row is locked with
// FOR UPDATE so concurrent redemption attempts on the same code serialize.
func (r *redeemCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	q := `
SELECT code, expires_at, max_uses, uses, created_by, created_at
  FROM redeem_codes WHERE code=$1`
	if _, inTx := tx.(pgx.Tx); inTx {
		q += " FOR UPDATE"
	}
	q += ";"

	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	var rc model.RedeemCode
	if err := row.Scan(&rc.Code, &rc.ExpiresAt, &rc.MaxUses, &rc.Uses, &rc.CreatedBy, &rc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan redeem code: %w", err)
	}
	return &rc, nil
}

// IncrementUses bumps the counter only while the cap holds; a zero-row
// update means the cap was hit and maps to domain.ErrInvalidArgument.
func (r *redeemCodeRepo) IncrementUses(ctx context.Context, tx repository.Tx, code string) error {
	const q = `UPDATE redeem_codes SET uses = uses + 1 WHERE code=$1 AND uses < max_uses;`
	tag, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return fmt.Errorf("increment uses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r *redeemCodeRepo) CountCodes(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM redeem_codes;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count redeem codes: %w", err)
	}
	return n, nil
}
