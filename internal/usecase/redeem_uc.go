package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/repository"
	"telegram-giveaway-bot/internal/infra/logging"
	"telegram-giveaway-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ RedeemUseCase = (*redeemUC)(nil)

// RedeemUseCase owns the redeem-code lifecycle: creation, and the atomic
// redemption transaction that checks expiry, per-user history and the usage
// cap before committing.
type RedeemUseCase interface {
	CreateCode(ctx context.Context, code string, maxUses, validMinutes int, createdBy int64) (model.CreateCodeStatus, *model.RedeemCode, error)
	Redeem(ctx context.Context, tgID int64, rawCode string) (model.RedeemStatus, error)
}

type redeemUC struct {
	codes       repository.RedeemCodeRepository
	redemptions repository.RedemptionRepository
	users       repository.UserRepository
	tm          repository.TransactionManager
	now         func() time.Time
	log         *zerolog.Logger
}

func NewRedeemUseCase(
	codes repository.RedeemCodeRepository,
	redemptions repository.RedemptionRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *redeemUC {
	return &redeemUC{
		codes:       codes,
		redemptions: redemptions,
		users:       users,
		tm:          tm,
		now:         time.Now,
		log:         logger,
	}
}

// CreateCode validates the parameters, normalizes the code string and inserts it.
// Duplicates are rejected, never merged; an invalid spec touches no storage.
func (u *redeemUC) CreateCode(ctx context.Context, code string, maxUses, validMinutes int, createdBy int64) (model.CreateCodeStatus, *model.RedeemCode, error) {
	defer logging.TraceDuration(u.log, "RedeemUC.CreateCode")()

	rc, err := model.NewRedeemCode(code, maxUses, validMinutes, createdBy)
	if err != nil {
		metrics.IncCodeCreated(model.CodeInvalidSpec.String())
		return model.CodeInvalidSpec, nil, nil
	}

	if err := u.codes.Insert(ctx, repository.NoTX, rc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			metrics.IncCodeCreated(model.CodeAlreadyExists.String())
			return model.CodeAlreadyExists, nil, nil
		}
		return 0, nil, fmt.Errorf("insert redeem code: %w", err)
	}

	metrics.IncCodeCreated(model.CodeCreated.String())
	u.log.Info().Str("code", rc.Code).Int("max_uses", rc.MaxUses).Int64("created_by", createdBy).Msg("redeem code created")
	return model.CodeCreated, rc, nil
}

// Sentinels used to roll back the redemption transaction when a race is
// detected on commit; mapped back to verdicts by Redeem.
var (
	errDuplicateRedemption = errors.New("redemption already recorded")
	errUsageCapRace        = errors.New("usage cap hit during commit")
)

// Redeem runs the redemption-attempt transaction. Each precondition
// short-circuits the next, so a user who already owns a redemption for an
// expired or exhausted code still gets the most informative verdict.
func (u *redeemUC) Redeem(ctx context.Context, tgID int64, rawCode string) (model.RedeemStatus, error) {
	defer logging.TraceDuration(u.log, "RedeemUC.Redeem")()

	code := model.NormalizeCode(rawCode)
	if code == "" {
		metrics.IncRedemption(model.RedeemCodeNotFound.String())
		return model.RedeemCodeNotFound, nil
	}

	status := model.RedeemOK
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		// Locks the code row for the rest of the transaction.
		rc, err := u.codes.FindByCode(ctx, tx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				status = model.RedeemCodeNotFound
				return nil
			}
			return err
		}

		if rc.ExpiredAt(u.now()) {
			status = model.RedeemExpired
			return nil
		}

		redeemed, err := u.redemptions.Exists(ctx, tx, tgID, code)
		if err != nil {
			return err
		}
		if redeemed {
			status = model.RedeemAlreadyRedeemed
			return nil
		}

		if rc.Exhausted() {
			status = model.RedeemLimitReached
			return nil
		}

		r := &model.Redemption{
			ID:         ulid.Make().String(),
			TelegramID: tgID,
			Code:       code,
			RedeemedAt: u.now(),
		}
		if err := u.redemptions.Insert(ctx, tx, r); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				// Lost a race against a concurrent identical request.
				return errDuplicateRedemption
			}
			return err
		}
		if err := u.codes.IncrementUses(ctx, tx, code); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				return errUsageCapRace
			}
			return err
		}
		// A successful redemption counts as a giveaway participation.
		return u.users.IncrementParticipation(ctx, tx, tgID)
	})
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateRedemption):
			status = model.RedeemAlreadyRedeemed
		case errors.Is(err, errUsageCapRace):
			status = model.RedeemLimitReached
		default:
			return 0, fmt.Errorf("redeem %q for %d: %w", code, tgID, err)
		}
	}

	metrics.IncRedemption(status.String())
	return status, nil
}
