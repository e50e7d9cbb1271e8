package application

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"telegram-giveaway-bot/internal/config"
	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/adapter"
	"telegram-giveaway-bot/internal/domain/ports/repository"
	"telegram-giveaway-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// Sender is the user behind an incoming update.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// Incoming is one platform event delivered to the router: either a direct
// message with text or a button-click callback.
type Incoming struct {
	Sender    Sender
	ChatID    int64
	MessageID int
	Text      string
}

// Router drives the per-user conversational state machine. Each incoming
// event is verified against the access gate, dispatched to the matching
// handler, and the per-user state is advanced or reset.
//
// States: idle (no stored state), awaiting a redeem code, awaiting an admin
// broadcast message, awaiting an admin code spec. State is keyed by Telegram
// user id; nothing is shared across users.
type Router struct {
	bot       adapter.TelegramBotAdapter
	cfg       *config.BotConfig
	gate      usecase.GateUseCase
	users     usecase.UserUseCase
	redeem    usecase.RedeemUseCase
	broadcast usecase.BroadcastUseCase
	states    repository.StateRepository
	log       *zerolog.Logger
}

func NewRouter(
	bot adapter.TelegramBotAdapter,
	cfg *config.BotConfig,
	gate usecase.GateUseCase,
	users usecase.UserUseCase,
	redeem usecase.RedeemUseCase,
	broadcast usecase.BroadcastUseCase,
	states repository.StateRepository,
	logger *zerolog.Logger,
) *Router {
	return &Router{
		bot:       bot,
		cfg:       cfg,
		gate:      gate,
		users:     users,
		redeem:    redeem,
		broadcast: broadcast,
		states:    states,
		log:       logger,
	}
}

// HandleStart processes the /start entry trigger.
func (r *Router) HandleStart(ctx context.Context, in Incoming) error {
	r.upsertSender(ctx, in.Sender)

	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	return r.sendMainMenu(ctx, in.Sender.ID, textAccessGranted)
}

// HandleCallback processes a button-click callback.
func (r *Router) HandleCallback(ctx context.Context, in Incoming, data string) error {
	if data != CallbackJoinedCheck {
		return nil
	}
	r.upsertSender(ctx, in.Sender)

	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.bot.SendMessage(ctx, in.ChatID, textJoinFirst)
	}
	return r.sendMainMenu(ctx, in.Sender.ID, textAccessGranted)
}

// HandleCancel resets the conversational state to idle from any state.
func (r *Router) HandleCancel(ctx context.Context, in Incoming) error {
	if err := r.states.ClearState(ctx, in.Sender.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.log.Warn().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to clear conversational state")
	}
	return r.sendMainMenu(ctx, in.Sender.ID, textCancelled)
}

// HandleText routes a plain text message: exact-match menu labels first,
// then whatever Awaiting* state is pending, then the menu fallback.
func (r *Router) HandleText(ctx context.Context, in Incoming) error {
	r.upsertSender(ctx, in.Sender)

	switch strings.TrimSpace(in.Text) {
	case BtnProfile:
		return r.handleProfile(ctx, in)
	case BtnRedeem:
		return r.handleRedeemEntry(ctx, in)
	case BtnAdminPanel:
		return r.handleAdminPanel(ctx, in)
	case BtnBroadcast:
		return r.handleAdminEntry(ctx, in, repository.StepAwaitingBroadcastText, textBroadcastPrompt)
	case BtnCreateCode:
		return r.handleAdminEntry(ctx, in, repository.StepAwaitingCodeSpec, textCreateCodePrompt)
	case BtnBack:
		return r.handleBack(ctx, in)
	}

	state, err := r.states.GetState(ctx, in.Sender.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r.handleFallback(ctx, in)
		}
		r.log.Error().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to load conversational state")
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}

	// Re-verify the gate before entering any state handler. A failing gate
	// defers the step: the join prompt is emitted and the pending state is
	// left untouched so the user may retry after joining.
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}

	switch state.Step {
	case repository.StepAwaitingRedeemCode:
		return r.handleRedeemCode(ctx, in)
	case repository.StepAwaitingBroadcastText:
		return r.handleBroadcastText(ctx, in)
	case repository.StepAwaitingCodeSpec:
		return r.handleCodeSpec(ctx, in)
	default:
		r.log.Warn().Str("step", string(state.Step)).Int64("tg_id", in.Sender.ID).Msg("unknown conversational step, resetting")
		_ = r.states.ClearState(ctx, in.Sender.ID)
		return r.handleFallback(ctx, in)
	}
}

// ---- menu handlers ----

func (r *Router) handleProfile(ctx context.Context, in Incoming) error {
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	u, err := r.users.GetByTelegramID(ctx, in.Sender.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to load profile")
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	return r.sendMainMenu(ctx, in.Sender.ID, profileText(u))
}

func (r *Router) handleRedeemEntry(ctx context.Context, in Incoming) error {
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	if err := r.setStep(ctx, in.Sender.ID, repository.StepAwaitingRedeemCode); err != nil {
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	return r.bot.SendMessage(ctx, in.ChatID, textRedeemPrompt)
}

// handleAdminPanel shows the admin keyboard. Non-admins are silently
// ignored so the admin surface is not revealed.
func (r *Router) handleAdminPanel(ctx context.Context, in Incoming) error {
	if !r.cfg.IsAdmin(in.Sender.ID) {
		return nil
	}
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	return r.bot.SendReplyKeyboard(ctx, in.ChatID, adminPanelText(), adminMenuRows())
}

func (r *Router) handleAdminEntry(ctx context.Context, in Incoming, step repository.ConversationStep, prompt string) error {
	if !r.cfg.IsAdmin(in.Sender.ID) {
		return nil
	}
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	if err := r.setStep(ctx, in.Sender.ID, step); err != nil {
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	return r.bot.SendMessage(ctx, in.ChatID, prompt)
}

func (r *Router) handleBack(ctx context.Context, in Incoming) error {
	if err := r.states.ClearState(ctx, in.Sender.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.log.Warn().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to clear conversational state")
	}
	return r.sendMainMenu(ctx, in.Sender.ID, textBackToMenu)
}

func (r *Router) handleFallback(ctx context.Context, in Incoming) error {
	if !r.gate.Verify(ctx, in.Sender.ID) {
		return r.sendJoinPrompt(ctx, in)
	}
	return r.sendMainMenu(ctx, in.Sender.ID, textChooseFromMenu)
}

// ---- state handlers ----

// handleRedeemCode consumes the pending redeem-code state: a reply is always
// returned and the state resets to idle, except on a storage failure, where
// the state is kept so the user can retry.
func (r *Router) handleRedeemCode(ctx context.Context, in Incoming) error {
	status, err := r.redeem.Redeem(ctx, in.Sender.ID, in.Text)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", in.Sender.ID).Msg("redeem attempt failed")
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	if err := r.states.ClearState(ctx, in.Sender.ID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to clear conversational state")
	}

	switch status {
	case model.RedeemOK:
		return r.bot.SendMessage(ctx, in.ChatID, redeemSuccessText(r.cfg.OwnerHandle))
	case model.RedeemLimitReached:
		return r.bot.SendMessage(ctx, in.ChatID, textRedeemLimit)
	case model.RedeemExpired:
		return r.bot.SendMessage(ctx, in.ChatID, textRedeemExpired)
	default:
		// CodeNotFound and AlreadyRedeemed read the same to the user.
		return r.bot.SendMessage(ctx, in.ChatID, textRedeemInvalid)
	}
}

func (r *Router) handleBroadcastText(ctx context.Context, in Incoming) error {
	if !r.cfg.IsAdmin(in.Sender.ID) {
		_ = r.states.ClearState(ctx, in.Sender.ID)
		return nil
	}
	// Back to idle after attempting the fan-out, regardless of outcome.
	defer func() {
		if err := r.states.ClearState(ctx, in.Sender.ID); err != nil {
			r.log.Warn().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to clear conversational state")
		}
	}()

	tally, err := r.broadcast.Broadcast(ctx, usecase.BroadcastSource{ChatID: in.ChatID, MessageID: in.MessageID})
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", in.Sender.ID).Msg("broadcast failed")
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	return r.bot.SendReplyKeyboard(ctx, in.ChatID, broadcastDoneText(tally.Sent, tally.Failed), adminMenuRows())
}

// handleCodeSpec parses "CODE MAX_USERS VALID_MINUTES". On any malformed or
// rejected spec the state is kept and the admin is re-prompted; only an
// accepted spec returns the flow to idle.
func (r *Router) handleCodeSpec(ctx context.Context, in Incoming) error {
	if !r.cfg.IsAdmin(in.Sender.ID) {
		_ = r.states.ClearState(ctx, in.Sender.ID)
		return nil
	}

	parts := strings.Fields(in.Text)
	if len(parts) != 3 {
		return r.bot.SendMessage(ctx, in.ChatID, textSpecFormat)
	}
	maxUses, err1 := strconv.Atoi(parts[1])
	validMinutes, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || maxUses <= 0 || validMinutes < 0 {
		return r.bot.SendMessage(ctx, in.ChatID, textSpecNumbers)
	}

	status, rc, err := r.redeem.CreateCode(ctx, parts[0], maxUses, validMinutes, in.Sender.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", in.Sender.ID).Msg("code creation failed")
		return r.bot.SendMessage(ctx, in.ChatID, textGenericError)
	}
	switch status {
	case model.CodeAlreadyExists:
		return r.bot.SendMessage(ctx, in.ChatID, textCodeExists)
	case model.CodeInvalidSpec:
		return r.bot.SendMessage(ctx, in.ChatID, textSpecNumbers)
	}

	if err := r.states.ClearState(ctx, in.Sender.ID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", in.Sender.ID).Msg("failed to clear conversational state")
	}
	return r.bot.SendReplyKeyboard(ctx, in.ChatID, codeCreatedText(rc), adminMenuRows())
}

// ---- helpers ----

func (r *Router) upsertSender(ctx context.Context, s Sender) {
	if err := r.users.UpsertFromTelegram(ctx, s.ID, s.FirstName, s.LastName, s.Username); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", s.ID).Msg("failed to upsert user")
	}
}

func (r *Router) setStep(ctx context.Context, tgID int64, step repository.ConversationStep) error {
	err := r.states.SetState(ctx, tgID, &repository.ConversationState{Step: step})
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Str("step", string(step)).Msg("failed to store conversational state")
	}
	return err
}

func (r *Router) sendMainMenu(ctx context.Context, tgID int64, text string) error {
	return r.bot.SendReplyKeyboard(ctx, tgID, text, mainMenuRows(r.cfg.IsAdmin(tgID)))
}

func (r *Router) sendJoinPrompt(ctx context.Context, in Incoming) error {
	name := in.Sender.FirstName
	if in.Sender.Username != "" {
		name = "@" + in.Sender.Username
	}
	var rows [][]adapter.InlineButton
	for _, ch := range r.gate.Channels() {
		if ch.Link != "" {
			rows = append(rows, []adapter.InlineButton{{Text: "➕ Join Channel", URL: ch.Link}})
		} else {
			rows = append(rows, []adapter.InlineButton{{Text: "➕ Join: " + ch.Chat, Data: "noop"}})
		}
	}
	rows = append(rows, []adapter.InlineButton{{Text: "✅ JOINED", Data: CallbackJoinedCheck}})
	return r.bot.SendInlineButtons(ctx, in.ChatID, welcomeText(name), rows)
}
