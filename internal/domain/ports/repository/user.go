package repository

import (
	"context"

	"telegram-giveaway-bot/internal/domain/model"
)

type UserRepository interface {
	// Upsert inserts the user or refreshes the name fields of an existing row.
	// JoinedOK and the counters are not touched by an upsert.
	Upsert(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	SetJoinedOK(ctx context.Context, tx Tx, tgID int64, ok bool) error
	IncrementParticipation(ctx context.Context, tx Tx, tgID int64) error
	ListIDs(ctx context.Context, tx Tx) ([]int64, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
