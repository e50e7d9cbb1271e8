package usecase

import (
	"context"

	"telegram-giveaway-bot/internal/config"
	"telegram-giveaway-bot/internal/domain/ports/adapter"
	"telegram-giveaway-bot/internal/domain/ports/repository"
	"telegram-giveaway-bot/internal/infra/logging"
	"telegram-giveaway-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ GateUseCase = (*gateUC)(nil)

// GateUseCase is the membership-verification decision point guarding
// sensitive actions. Verify must be re-run live on every sensitive action;
// the persisted joined flag is informational only and never skips a check.
type GateUseCase interface {
	Verify(ctx context.Context, tgID int64) bool
	Channels() []config.RequiredChannel
}

type gateUC struct {
	channels []config.RequiredChannel
	bot      adapter.TelegramBotAdapter
	users    repository.UserRepository
	log      *zerolog.Logger
}

func NewGateUseCase(channels []config.RequiredChannel, bot adapter.TelegramBotAdapter, users repository.UserRepository, logger *zerolog.Logger) *gateUC {
	return &gateUC{channels: channels, bot: bot, users: users, log: logger}
}

// Verify checks membership in every required channel, in order,
// short-circuiting on the first failure. A query error is treated the same
// as not being joined (fail-closed): logged, never surfaced to the caller.
func (g *gateUC) Verify(ctx context.Context, tgID int64) bool {
	defer logging.TraceDuration(g.log, "GateUC.Verify")()

	joined := true
	for _, ch := range g.channels {
		status, err := g.bot.GetChatMember(ctx, ch.Chat, tgID)
		if err != nil {
			// Bot may lack access (not admin / private channel); treat as NOT joined.
			g.log.Warn().Err(err).Str("chat", ch.Chat).Int64("tg_id", tgID).Msg("membership check failed")
			joined = false
			break
		}
		if !status.Joined() {
			joined = false
			break
		}
	}

	metrics.IncGateCheck(joined)
	if joined {
		if err := g.users.SetJoinedOK(ctx, repository.NoTX, tgID, true); err != nil {
			g.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to persist joined flag")
		}
	}
	return joined
}

func (g *gateUC) Channels() []config.RequiredChannel { return g.channels }
