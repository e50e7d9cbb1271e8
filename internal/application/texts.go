package application

import (
	"fmt"
	"strings"
	"time"

	"telegram-giveaway-bot/internal/domain/model"
)

// Main-menu and admin-menu labels. Incoming text is routed by exact match
// against these before any pending conversational state is consulted.
const (
	BtnProfile    = "👤 MY PROFILE"
	BtnRedeem     = "💳 Redeem Code"
	BtnAdminPanel = "🛠 ADMIN PANEL"
	BtnBroadcast  = "📣 BROADCAST"
	BtnCreateCode = "🎫 CREATE REDEEM CODE"
	BtnBack       = "⬅️ BACK"

	// CallbackJoinedCheck is the callback data of the ✅ JOINED button.
	CallbackJoinedCheck = "joined_check"
)

const (
	textAccessGranted   = "✅ Access Granted!\nSelect an option:"
	textJoinFirst       = "❌ Join all channels first!"
	textRedeemPrompt    = "🎁 Please send your redeem code:"
	textRedeemLimit     = "❌ Redeem limit has been reached."
	textRedeemExpired   = "❌ Redeem code expired."
	textRedeemInvalid   = "❌ Invalid redeem code.\nPlease try again."
	textCancelled       = "Cancelled."
	textBackToMenu      = "Back to menu."
	textChooseFromMenu  = "Choose an option from menu ✅"
	textGenericError    = "Something went wrong. Please try again."
	textBroadcastPrompt = "📣 Send the message you want to broadcast to all users:\n\n(Or /cancel)"
	textSpecFormat      = "❌ Format wrong. Use: CODE MAX_USERS VALID_MINUTES"
	textSpecNumbers     = "❌ MAX_USERS must be > 0 and VALID_MINUTES must be >= 0."
	textCodeExists      = "❌ Code already exists. Try a new code name."

	textCreateCodePrompt = "🎫 Send redeem code details like this:\n\n" +
		"CODE MAX_USERS VALID_MINUTES\n\n" +
		"Example:\nMADARA50 50 1440\n\n" +
		"(VALID_MINUTES = 0 means no expiry)\n\nOr /cancel"

	divider = "━━━━━━━━━━━━━━━━━━━━━━━"
)

func welcomeText(name string) string {
	return fmt.Sprintf("👋 Welcome! %s\n\nJoin all channels and click JOINED", name)
}

func redeemSuccessText(ownerHandle string) string {
	return fmt.Sprintf("CONGRATULATIONS 🎉 REDEEM SUCCESSFULLY ✅ CONTACT OUR OWNER FOR PRIZE ~ %s", ownerHandle)
}

func broadcastDoneText(sent, failed int) string {
	return fmt.Sprintf("✅ Broadcast done.\nSent: %d\nFailed: %d", sent, failed)
}

func codeCreatedText(rc *model.RedeemCode) string {
	expiry := "No expiry"
	if rc.ExpiresAt != nil {
		expiry = rc.ExpiresAt.Format(time.RFC3339)
	}
	return fmt.Sprintf("✅ Redeem code created!\n\nCode: %s\nMax users: %d\nExpiry: %s", rc.Code, rc.MaxUses, expiry)
}

func adminPanelText() string {
	return "🛠 ADMIN PANEL\n" + divider + "\nChoose an option:\n📣 BROADCAST\n🎫 CREATE REDEEM CODE"
}

// profileText renders every field exactly once regardless of whether a
// username is present.
func profileText(u *model.User) string {
	username := "(none)"
	if u.Username != "" {
		username = "@" + u.Username
	}
	var b strings.Builder
	b.WriteString(divider + "\n👤 YOUR TELEGRAM PROFILE\n" + divider + "\n\n")
	fmt.Fprintf(&b, "▸ First Name  : %s\n", u.FirstName)
	fmt.Fprintf(&b, "▸ Last Name   : %s\n", u.LastName)
	fmt.Fprintf(&b, "▸ Telegram ID : %d\n", u.TelegramID)
	fmt.Fprintf(&b, "▸ Username    : %s\n", username)
	b.WriteString("\n" + divider + "\n📊 GIVEAWAY INFORMATION\n" + divider + "\n")
	fmt.Fprintf(&b, "▪ Total Participate : %d\n", u.TotalParticipate)
	fmt.Fprintf(&b, "▪ Win Record        : %d\n", u.WinRecord)
	return b.String()
}

func mainMenuRows(isAdmin bool) [][]string {
	rows := [][]string{{BtnProfile, BtnRedeem}}
	if isAdmin {
		rows = append(rows, []string{BtnAdminPanel})
	}
	return rows
}

func adminMenuRows() [][]string {
	return [][]string{{BtnBroadcast, BtnCreateCode}, {BtnBack}}
}
