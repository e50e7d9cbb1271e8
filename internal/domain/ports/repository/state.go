package repository

import (
	"context"
)

// ConversationStep identifies which multi-turn input flow a user is in.
type ConversationStep string

const (
	StepAwaitingRedeemCode    ConversationStep = "awaiting_redeem_code"
	StepAwaitingBroadcastText ConversationStep = "awaiting_broadcast_text"
	StepAwaitingCodeSpec      ConversationStep = "awaiting_code_spec"
)

// ConversationState holds a user's progress in a multi-step conversation.
// Absence of a state means the user is idle at the main menu.
type ConversationState struct {
	Step ConversationStep  `json:"step"`
	Data map[string]string `json:"data,omitempty"`
}

// StateRepository is the port for per-user conversational state. GetState
// returns domain.ErrNotFound when the user has no pending flow.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
