package model

import (
	"strings"
	"time"

	"telegram-giveaway-bot/internal/domain"
)

// RedeemCode is a shared token redeemable by many distinct users, each at
// most once, up to MaxUses in total. Identity is the normalized code string.
type RedeemCode struct {
	Code      string
	ExpiresAt *time.Time // nil means the code never expires
	MaxUses   int
	Uses      int
	CreatedBy int64
	CreatedAt time.Time
}

// NewRedeemCode validates and builds a code record. validMinutes == 0 means
// no expiry; the code string is normalized before storage.
func NewRedeemCode(code string, maxUses, validMinutes int, createdBy int64) (*RedeemCode, error) {
	code = NormalizeCode(code)
	if code == "" || maxUses <= 0 || validMinutes < 0 {
		return nil, domain.ErrInvalidArgument
	}
	rc := &RedeemCode{
		Code:      code,
		MaxUses:   maxUses,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if validMinutes > 0 {
		exp := rc.CreatedAt.Add(time.Duration(validMinutes) * time.Minute)
		rc.ExpiresAt = &exp
	}
	return rc, nil
}

func (c *RedeemCode) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

func (c *RedeemCode) Exhausted() bool { return c.Uses >= c.MaxUses }

// NormalizeCode maps a user-typed code to its canonical form: all whitespace
// stripped, uppercased. Every lookup and storage path goes through this.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Redemption records one specific user having successfully used one specific
// code. The (TelegramID, Code) pair is unique; a row here is the
// authoritative "already redeemed" check.
type Redemption struct {
	ID         string
	TelegramID int64
	Code       string
	RedeemedAt time.Time
}

// RedeemStatus is the closed set of verdicts a redemption attempt can yield.
type RedeemStatus int

const (
	RedeemOK RedeemStatus = iota
	RedeemAlreadyRedeemed
	RedeemLimitReached
	RedeemExpired
	RedeemCodeNotFound
)

func (s RedeemStatus) String() string {
	switch s {
	case RedeemOK:
		return "ok"
	case RedeemAlreadyRedeemed:
		return "already_redeemed"
	case RedeemLimitReached:
		return "limit_reached"
	case RedeemExpired:
		return "expired"
	case RedeemCodeNotFound:
		return "code_not_found"
	default:
		return "unknown"
	}
}

// CreateCodeStatus is the closed set of verdicts code creation can yield.
type CreateCodeStatus int

const (
	CodeCreated CreateCodeStatus = iota
	CodeAlreadyExists
	CodeInvalidSpec
)

func (s CreateCodeStatus) String() string {
	switch s {
	case CodeCreated:
		return "created"
	case CodeAlreadyExists:
		return "already_exists"
	case CodeInvalidSpec:
		return "invalid_spec"
	default:
		return "unknown"
	}
}
