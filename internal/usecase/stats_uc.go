package usecase

import (
	"context"

	"telegram-giveaway-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// LedgerTotals are the row counts of the three ledger record sets.
type LedgerTotals struct {
	Users       int `json:"users"`
	Codes       int `json:"codes"`
	Redemptions int `json:"redemptions"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (LedgerTotals, error)
}

type statsUC struct {
	users       repository.UserRepository
	codes       repository.RedeemCodeRepository
	redemptions repository.RedemptionRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, codes repository.RedeemCodeRepository, redemptions repository.RedemptionRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, codes: codes, redemptions: redemptions, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (LedgerTotals, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return LedgerTotals{}, err
	}
	codes, err := s.codes.CountCodes(ctx, repository.NoTX)
	if err != nil {
		return LedgerTotals{}, err
	}
	redemptions, err := s.redemptions.CountRedemptions(ctx, repository.NoTX)
	if err != nil {
		return LedgerTotals{}, err
	}
	return LedgerTotals{Users: users, Codes: codes, Redemptions: redemptions}, nil
}
