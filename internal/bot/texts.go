package bot

import (
	"fmt"
	"strings"

	"reward-bot/internal/features/reward/ledger"
)

const (
	parseMarkdown = "Markdown"

	callbackCheckJoin = "check_join"

	textWelcome = "👋 Welcome to the *Reward Bot*!\n\n" +
		"To use this bot and receive your rewards you must be a member of our official channel.\n\n" +
		"Please join below and tap *Check join*."
	textJoinConfirmed     = "✨ *Join confirmed!*\n\nYou are almost there. Send /register to claim your welcome rewards! 🎁"
	textWelcomeBack       = "🌟 *Welcome back!*\n\nYou are already a registered member.\n\n💡 Use /reward to view your gifts or /ref to invite friends."
	textAccessDenied      = "⚠️ *Access denied!*\n\nPlease join the channel first."
	textJoinFirst         = "⚠️ Join the channel first!"
	textNotJoinedYet      = "You have not joined the channel yet."
	textAlreadyRegistered = "✅ *You are already registered.*"
	textRegisterFirst     = "❌ *Please register first using /register*"
	textNoRewardsYet      = "🎁 *You haven't received any rewards yet.*"
	textStockExhausted    = "❌ *Reward stock finished!* Contact admin."
	textCommands          = "🛠 *Available commands*\n\n" +
		"🔹 /start - start the bot\n" +
		"🔹 /register - claim the joining bonus\n" +
		"🔹 /reward - view your rewards\n" +
		"🔹 /ref - get your referral link\n" +
		"🔹 /cmds - show this list\n" +
		"🔹 /admin - control panel (admins only)"

	textAdminOnly  = "❌ This command is only for admins."
	textAdminPanel = "👑 Admin Panel Commands:\n\n" +
		"/addtxt - Upload new txt messages file\n" +
		"/users - Total registered users\n" +
		"/stock - Show total/used/remaining messages\n" +
		"/resetused - Reset used messages (allow reuse)\n" +
		"/broadcast - Send message to all users\n"
	textResetDone          = "✅ Used message list reset. Messages can be reused now."
	textOnlyTxt            = "❌ Only .txt file allowed."
	textUploadFailed       = "❌ Error retrieving file."
	textUploadEmpty        = "❌ The file contains no messages."
	textUploadNotUTF8      = "❌ The file must be UTF-8 text."
	textBroadcastPrompt    = "📢 Please send the message you want to broadcast (or type /cancel):"
	textBroadcastCancelled = "❌ Broadcast cancelled."
	textBroadcastSending   = "⏳ Sending broadcast..."
	textNothingToCancel    = "Nothing to cancel."
	textInternalError      = "⚠️ Something went wrong, please try again later."
)

func textRegistered(n int) string {
	return fmt.Sprintf("🎊 *Registration successful!*\n\nYou have earned *%d reward messages*. Sending them now... 📥", n)
}

func textReward(msg string) string {
	if strings.Contains(msg, "`") {
		return "🎁 Reward message:\n\n" + msg
	}
	return "🎁 *Reward message:*\n\n`" + msg + "`"
}

func textReferralSuccess(bonus int) string {
	return fmt.Sprintf("🎉 *Successful referral!*\nYou got %d extra reward messages!", bonus)
}

func textReferralDashboard(count int, link string, bonus int) string {
	return fmt.Sprintf("📊 *Referral dashboard*\n\n"+
		"✅ Successful referrals: `%d`\n\n"+
		"🔗 *Your unique link:*\n`%s`\n\n"+
		"💡 _Invite friends to earn %d rewards per referral!_", count, link, bonus)
}

func textAddTxt(sep string) string {
	return fmt.Sprintf("📤 Send your .txt file now (messages separated by %s)", sep)
}

func textFileAdded(name string, added, total int) string {
	return fmt.Sprintf("✅ File added successfully: %s\nNew messages: %d\nTotal messages: %d", name, added, total)
}

func textUsers(n int) string {
	return fmt.Sprintf("👥 Total Users: %d", n)
}

func textStock(s ledger.Stock) string {
	return fmt.Sprintf("📦 Stock Info:\n\nTotal Messages: %d\nUsed Messages: %d\nRemaining Messages: %d",
		s.Total, s.Used, s.Remaining)
}

func textBroadcast(body string) string {
	return "📢 Broadcast:\n\n" + body
}

func textBroadcastDone(sent, failed int) string {
	return fmt.Sprintf("✅ Broadcast Done\nSent: %d\nFailed: %d", sent, failed)
}

// rewardPreview renders the newest-first preview shown by /reward and the
// parse mode to send it with. A backtick in any entry would unbalance the
// code spans, so such previews go out as plain text.
func rewardPreview(last []string) (string, string) {
	plain := false
	for _, m := range last {
		if strings.Contains(m, "`") {
			plain = true
			break
		}
	}

	var b strings.Builder
	if plain {
		fmt.Fprintf(&b, "💎 Your last %d rewards:\n\n", len(last))
	} else {
		fmt.Fprintf(&b, "💎 *Your last %d rewards:*\n\n", len(last))
	}
	for _, m := range last {
		if plain {
			b.WriteString("🔹 " + m)
		} else {
			b.WriteString("🔹 `" + m + "`")
		}
		b.WriteString("\n━━━━━━━━━━━━━━━━\n")
	}
	if plain {
		return b.String(), ""
	}
	return b.String(), parseMarkdown
}

// historyDocument renders the full history file, oldest first.
func historyDocument(username string, history []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "--- REWARD HISTORY FOR @%s ---\n\n", username)
	for i, m := range history {
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, m, strings.Repeat("-", 30))
	}
	return []byte(b.String())
}
