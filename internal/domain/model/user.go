package model

import (
	"time"

	"telegram-giveaway-bot/internal/domain"
)

// User is a domain entity representing a Telegram user in our system.
// Identity is the Telegram user id; the record is upserted on every
// observed update from that user and never deleted.
type User struct {
	TelegramID       int64
	FirstName        string
	LastName         string
	Username         string
	JoinedOK         bool
	TotalParticipate int
	WinRecord        int
	CreatedAt        time.Time
}

func NewUser(tgID int64, firstName, lastName, username string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		TelegramID: tgID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
		CreatedAt:  time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.TelegramID == 0 }

// DisplayName prefers the @username handle, falling back to the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}
