//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-giveaway-bot/internal/domain"
	"telegram-giveaway-bot/internal/domain/model"
	"telegram-giveaway-bot/internal/domain/ports/adapter"
	"telegram-giveaway-bot/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type sentMessage struct {
	ChatID int64
	Text   string
}

type copiedMessage struct {
	ToChatID   int64
	FromChatID int64
	MessageID  int
}

type MockTelegramBot struct {
	mu     sync.Mutex
	Sent   []sentMessage
	Copied []copiedMessage

	SendMessageFunc       func(ctx context.Context, chatID int64, text string) error
	SendInlineButtonsFunc func(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error
	SendReplyKeyboardFunc func(ctx context.Context, chatID int64, text string, rows [][]string) error
	CopyMessageFunc       func(ctx context.Context, toChatID, fromChatID int64, messageID int) error
	GetChatMemberFunc     func(ctx context.Context, chat string, userID int64) (adapter.MemberStatus, error)
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendInlineButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if m.SendInlineButtonsFunc != nil {
		return m.SendInlineButtonsFunc(ctx, chatID, text, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendReplyKeyboard(ctx context.Context, chatID int64, text string, rows [][]string) error {
	if m.SendReplyKeyboardFunc != nil {
		return m.SendReplyKeyboardFunc(ctx, chatID, text, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if m.CopyMessageFunc != nil {
		return m.CopyMessageFunc(ctx, toChatID, fromChatID, messageID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Copied = append(m.Copied, copiedMessage{ToChatID: toChatID, FromChatID: fromChatID, MessageID: messageID})
	return nil
}

func (m *MockTelegramBot) GetChatMember(ctx context.Context, chat string, userID int64) (adapter.MemberStatus, error) {
	if m.GetChatMemberFunc != nil {
		return m.GetChatMemberFunc(ctx, chat, userID)
	}
	return adapter.MemberStatusMember, nil
}

func (m *MockTelegramBot) CopiedTo() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.Copied))
	for _, c := range m.Copied {
		out = append(out, c.ToChatID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byTG map[int64]*model.User

	UpsertFunc                 func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc       func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	SetJoinedOKFunc            func(ctx context.Context, tx repository.Tx, tgID int64, ok bool) error
	IncrementParticipationFunc func(ctx context.Context, tx repository.Tx, tgID int64) error
	ListIDsFunc                func(ctx context.Context, tx repository.Tx) ([]int64, error)
	CountUsersFunc             func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Seed(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byTG[u.TelegramID] = &cp
}

func (r *MockUserRepo) Get(tgID int64) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (r *MockUserRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byTG[u.TelegramID]; ok {
		old.FirstName = u.FirstName
		old.LastName = u.LastName
		old.Username = u.Username
		return nil
	}
	cp := *u
	r.byTG[u.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) SetJoinedOK(ctx context.Context, tx repository.Tx, tgID int64, ok bool) error {
	if r.SetJoinedOKFunc != nil {
		return r.SetJoinedOKFunc(ctx, tx, tgID, ok)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, found := r.byTG[tgID]; found {
		u.JoinedOK = ok
	}
	return nil
}

func (r *MockUserRepo) IncrementParticipation(ctx context.Context, tx repository.Tx, tgID int64) error {
	if r.IncrementParticipationFunc != nil {
		return r.IncrementParticipationFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		u.TotalParticipate++
	}
	return nil
}

func (r *MockUserRepo) ListIDs(ctx context.Context, tx repository.Tx) ([]int64, error) {
	if r.ListIDsFunc != nil {
		return r.ListIDsFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.byTG))
	for id := range r.byTG {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTG), nil
}

// ---- Mock RedeemCodeRepository ----

type MockCodeRepo struct {
	mu   sync.Mutex
	data map[string]*model.RedeemCode

	InsertFunc        func(ctx context.Context, tx repository.Tx, code *model.RedeemCode) error
	FindByCodeFunc    func(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error)
	IncrementUsesFunc func(ctx context.Context, tx repository.Tx, code string) error
	CountCodesFunc    func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.RedeemCodeRepository = (*MockCodeRepo)(nil)

func NewMockCodeRepo() *MockCodeRepo {
	return &MockCodeRepo{data: map[string]*model.RedeemCode{}}
}

func (r *MockCodeRepo) Seed(rc *model.RedeemCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rc
	r.data[rc.Code] = &cp
}

func (r *MockCodeRepo) Get(code string) *model.RedeemCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rc, ok := r.data[code]; ok {
		cp := *rc
		return &cp
	}
	return nil
}

func (r *MockCodeRepo) Insert(ctx context.Context, tx repository.Tx, code *model.RedeemCode) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	r.data[code.Code] = &cp
	return nil
}

func (r *MockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	if r.FindByCodeFunc != nil {
		return r.FindByCodeFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rc, ok := r.data[code]; ok {
		cp := *rc
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockCodeRepo) IncrementUses(ctx context.Context, tx repository.Tx, code string) error {
	if r.IncrementUsesFunc != nil {
		return r.IncrementUsesFunc(ctx, tx, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.data[code]
	if !ok {
		return domain.ErrNotFound
	}
	if rc.Uses >= rc.MaxUses {
		return domain.ErrInvalidArgument
	}
	rc.Uses++
	return nil
}

func (r *MockCodeRepo) CountCodes(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountCodesFunc != nil {
		return r.CountCodesFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// ---- Mock RedemptionRepository ----

type MockRedemptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Redemption // keyed "tgID:code"

	InsertFunc           func(ctx context.Context, tx repository.Tx, rec *model.Redemption) error
	ExistsFunc           func(ctx context.Context, tx repository.Tx, tgID int64, code string) (bool, error)
	CountRedemptionsFunc func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.RedemptionRepository = (*MockRedemptionRepo)(nil)

func NewMockRedemptionRepo() *MockRedemptionRepo {
	return &MockRedemptionRepo{data: map[string]*model.Redemption{}}
}

func pairKey(tgID int64, code string) string {
	return fmt.Sprintf("%d:%s", tgID, code)
}

func (r *MockRedemptionRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, rec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(rec.TelegramID, rec.Code)
	if _, ok := r.data[key]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	r.data[key] = &cp
	return nil
}

func (r *MockRedemptionRepo) Exists(ctx context.Context, tx repository.Tx, tgID int64, code string) (bool, error) {
	if r.ExistsFunc != nil {
		return r.ExistsFunc(ctx, tx, tgID, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[pairKey(tgID, code)]
	return ok, nil
}

func (r *MockRedemptionRepo) CountRedemptions(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountRedemptionsFunc != nil {
		return r.CountRedemptionsFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

// MockTxManager serializes transaction functions with a mutex, standing in
// for the row lock the real manager gets from SELECT ... FOR UPDATE.
type MockTxManager struct {
	mu sync.Mutex

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func minutesFromNow(m int) *time.Time {
	t := time.Now().Add(time.Duration(m) * time.Minute)
	return &t
}
