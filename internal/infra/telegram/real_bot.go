package telegram

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-giveaway-bot/internal/application"
	"telegram-giveaway-bot/internal/config"
	"telegram-giveaway-bot/internal/domain/ports/adapter"
	"telegram-giveaway-bot/internal/infra/logging"
	"telegram-giveaway-bot/internal/infra/metrics"
	red "telegram-giveaway-bot/internal/infra/redis"
)

// How many messages one user may send per minute before we start dropping.
const perUserMessageLimit = 30

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to the
// flow router. It also implements the outbound adapter port.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	// router is attached after construction to break the bot<->router cycle.
	router *application.Router

	updateWorkers int
	cancelPolling context.CancelFunc
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

func NewRealTelegramBotAdapter(cfg *config.BotConfig, rateLimiter *red.RateLimiter, updateWorkers int, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if updateWorkers <= 0 {
		updateWorkers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rateLimiter,
		log:           logger,
		updateWorkers: updateWorkers,
	}, nil
}

// AttachRouter wires the flow router that consumes incoming events.
// Must be called before StartPolling.
func (r *RealTelegramBotAdapter) AttachRouter(router *application.Router) {
	r.router = router
}

// StartPolling begins polling Telegram for updates and fans them out to
// updateWorkers goroutines. Runs until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.router == nil {
		return errors.New("router not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("error handling update")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

// StopPolling stops the polling loop gracefully.
func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (r *RealTelegramBotAdapter) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Stop the client-side spinner regardless of what the callback does.
	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Warn().Err(err).Msg("failed to answer callback query")
	}
	if cb.Message == nil {
		return nil
	}

	metrics.IncUpdate("callback")
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, cb.From.ID)

	in := application.Incoming{
		Sender:    senderFrom(cb.From),
		ChatID:    cb.Message.Chat.ID,
		MessageID: cb.Message.MessageID,
	}
	return r.router.HandleCallback(ctx, in, cb.Data)
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, msg.From.ID)

	in := application.Incoming{
		Sender:    senderFrom(msg.From),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}

	if msg.IsCommand() {
		metrics.IncUpdate("command")
		switch msg.Command() {
		case "start":
			return r.router.HandleStart(ctx, in)
		case "cancel":
			return r.router.HandleCancel(ctx, in)
		default:
			return nil
		}
	}

	if msg.Text == "" {
		return nil
	}
	metrics.IncUpdate("message")

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserMessageKey(msg.From.ID), perUserMessageLimit, time.Minute)
		if err != nil {
			// Limiter trouble must not take the bot down; fail open.
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			logging.With(ctx, r.log).Debug().Msg("dropping message, rate limit exceeded")
			return nil
		}
	}

	return r.router.HandleText(ctx, in)
}

func senderFrom(u *tgbotapi.User) application.Sender {
	return application.Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}

// ---- outbound port ----

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendInlineButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendReplyKeyboard(ctx context.Context, chatID int64, text string, rows [][]string) error {
	var kbRows [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.KeyboardButton
		for _, label := range row {
			kbRow = append(kbRow, tgbotapi.NewKeyboardButton(label))
		}
		kbRows = append(kbRows, kbRow)
	}
	kb := tgbotapi.NewReplyKeyboard(kbRows...)
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	_, err := r.bot.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID))
	return err
}

// GetChatMember resolves membership for either an @username channel or a
// numeric chat id.
func (r *RealTelegramBotAdapter) GetChatMember(ctx context.Context, chat string, userID int64) (adapter.MemberStatus, error) {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	if len(chat) > 0 && chat[0] == '@' {
		cfg.SuperGroupUsername = chat
	} else {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return adapter.MemberStatusUnknown, err
		}
		cfg.ChatID = id
	}

	member, err := r.bot.GetChatMember(cfg)
	if err != nil {
		return adapter.MemberStatusUnknown, err
	}
	switch member.Status {
	case "creator":
		return adapter.MemberStatusCreator, nil
	case "administrator":
		return adapter.MemberStatusAdministrator, nil
	case "member", "restricted":
		// Restricted members are still inside the chat.
		return adapter.MemberStatusMember, nil
	case "left":
		return adapter.MemberStatusLeft, nil
	case "kicked":
		return adapter.MemberStatusKicked, nil
	case "banned":
		return adapter.MemberStatusBanned, nil
	default:
		return adapter.MemberStatusUnknown, nil
	}
}
