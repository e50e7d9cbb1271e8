package adapter

import "context"

// MemberStatus mirrors the statuses Telegram reports for getChatMember.
type MemberStatus string

const (
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusKicked        MemberStatus = "kicked"
	MemberStatusBanned        MemberStatus = "banned"
	MemberStatusUnknown       MemberStatus = ""
)

// Joined reports whether the status counts as being inside the chat.
func (s MemberStatus) Joined() bool {
	switch s {
	case MemberStatusCreator, MemberStatusAdministrator, MemberStatusMember:
		return true
	default:
		return false
	}
}

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// TelegramBotAdapter is the outbound port to the messaging platform.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendInlineButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	// SendReplyKeyboard sends text together with a persistent reply keyboard.
	SendReplyKeyboard(ctx context.Context, chatID int64, text string, rows [][]string) error
	// CopyMessage re-sends an existing message to another chat without the
	// forward header. Used by the broadcast fan-out.
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error
	// GetChatMember queries a user's membership in a channel or group.
	// chat is either an @username or a numeric chat id string.
	GetChatMember(ctx context.Context, chat string, userID int64) (MemberStatus, error)
}
