package repository

import (
	"context"

	"telegram-giveaway-bot/internal/domain/model"
)

// RedeemCodeRepository is the port for the redeem-code side of the ledger.
type RedeemCodeRepository interface {
	// Insert creates a new code. Returns domain.ErrAlreadyExists when the
	// normalized code string is already present (no overwrite).
	Insert(ctx context.Context, tx Tx, code *model.RedeemCode) error
	// FindByCode looks up a code by its normalized string. When called inside
	// a transaction the row is locked for the duration of the transaction.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RedeemCode, error)
	// IncrementUses bumps the use counter, guarded by the usage cap.
	// Returns domain.ErrInvalidArgument if the cap has been reached.
	IncrementUses(ctx context.Context, tx Tx, code string) error
	CountCodes(ctx context.Context, tx Tx) (int, error)
}

// RedemptionRepository is the port for the per-user redemption history.
type RedemptionRepository interface {
	// Insert records a redemption. Returns domain.ErrAlreadyExists when the
	// (user, code) pair already holds a row.
	Insert(ctx context.Context, tx Tx, r *model.Redemption) error
	Exists(ctx context.Context, tx Tx, tgID int64, code string) (bool, error)
	CountRedemptions(ctx context.Context, tx Tx) (int, error)
}
