package usecase

import (
	"context"

	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/repository"
	"telegram-giveaway-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by the bot flows.
type UserUseCase interface {
	// UpsertFromTelegram creates or refreshes the user record observed on an
	// incoming update. Name fields follow Telegram; counters are preserved.
	UpsertFromTelegram(ctx context.Context, tgID int64, firstName, lastName, username string) error
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, log: logger}
}

func (u *userUC) UpsertFromTelegram(ctx context.Context, tgID int64, firstName, lastName, username string) error {
	defer logging.TraceDuration(u.log, "UserUC.UpsertFromTelegram")()

	usr, err := model.NewUser(tgID, firstName, lastName, username)
	if err != nil {
		return err
	}
	if err := u.users.Upsert(ctx, repository.NoTX, usr); err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to upsert user")
		return err
	}
	return nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

// ListIDs snapshots all known user ids, used by the broadcast fan-out.
func (u *userUC) ListIDs(ctx context.Context) ([]int64, error) {
	defer logging.TraceDuration(u.log, "UserUC.ListIDs")()
	return u.users.ListIDs(ctx, repository.NoTX)
}
