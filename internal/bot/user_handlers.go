package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"reward-bot/internal/platform/telegram"
)

// maxCaption is Telegram's caption limit for documents.
const maxCaption = 1024

func (b *Bot) handleStart(ctx context.Context, m *telegram.Message, args []string) {
	uid := userID(m.From)
	chatID := chatIDOf(m)

	if _, err := b.users.RegisterIfAbsent(ctx, uid, m.From.Username); err != nil {
		b.internalError(ctx, chatID, err, "Failed to register user")
		return
	}
	if len(args) > 0 {
		if tracked, err := b.referrals.Track(ctx, uid, args[0]); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to track referral")
		} else if tracked {
			zerolog.Ctx(ctx).Info().Str("referrer_id", args[0]).Msg("Pending referral recorded")
		}
	}

	if !b.isMember(ctx, uid) {
		b.send(ctx, chatID, textWelcome, telegram.SendOptions{ParseMode: parseMarkdown, ReplyMarkup: b.joinMarkup()})
		return
	}
	b.greetMember(ctx, uid, chatID)
}

// greetMember marks a confirmed member as joined and points them at the next step.
func (b *Bot) greetMember(ctx context.Context, uid, chatID string) {
	if _, err := b.users.MarkJoined(ctx, uid); err != nil {
		b.internalError(ctx, chatID, err, "Failed to mark user joined")
		return
	}
	u, _, err := b.users.Get(ctx, uid)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to load user")
		return
	}
	if !u.Registered {
		b.reply(ctx, chatID, textJoinConfirmed)
		return
	}
	b.reply(ctx, chatID, textWelcomeBack)
}

func (b *Bot) handleCallback(ctx context.Context, q *telegram.CallbackQuery) {
	if q.Data != callbackCheckJoin {
		if err := b.api.AnswerCallbackQuery(ctx, q.ID, "", false); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("data", q.Data).Msg("Failed to answer callback")
		}
		return
	}
	uid := userID(&q.From)
	chatID := uid
	if q.Message != nil {
		chatID = chatIDOf(q.Message)
	}

	if !b.isMember(ctx, uid) {
		if err := b.api.AnswerCallbackQuery(ctx, q.ID, textNotJoinedYet, true); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
		}
		return
	}
	if err := b.api.AnswerCallbackQuery(ctx, q.ID, "", false); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
	}
	if _, err := b.users.RegisterIfAbsent(ctx, uid, q.From.Username); err != nil {
		b.internalError(ctx, chatID, err, "Failed to register user")
		return
	}
	b.greetMember(ctx, uid, chatID)
}

func (b *Bot) handleRegister(ctx context.Context, m *telegram.Message) {
	uid := userID(m.From)
	chatID := chatIDOf(m)

	if !b.isMember(ctx, uid) {
		b.send(ctx, chatID, textAccessDenied, telegram.SendOptions{ParseMode: parseMarkdown, ReplyMarkup: b.joinMarkup()})
		return
	}
	if _, err := b.users.RegisterIfAbsent(ctx, uid, m.From.Username); err != nil {
		b.internalError(ctx, chatID, err, "Failed to register user")
		return
	}
	registered, err := b.users.CompleteRegistration(ctx, uid)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to complete registration")
		return
	}
	if !registered {
		b.reply(ctx, chatID, textAlreadyRegistered)
		return
	}

	n := b.cfg.Bot.RewardNewUser
	b.reply(ctx, chatID, textRegistered(n))

	granted, err := b.allocator.Grant(ctx, uid, n)
	switch {
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to grant registration rewards")
		b.replyPlain(ctx, chatID, textInternalError)
		return
	case !granted:
		// the pending referral stays until the referee is actually paid
		b.reply(ctx, chatID, textStockExhausted)
		return
	}

	outcome, err := b.referrals.Resolve(ctx, uid)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to resolve referral")
		return
	}
	zerolog.Ctx(ctx).Debug().Str("outcome", string(outcome)).Msg("Referral check done")
}

// requireRegistered applies the join gate and the registration check.
func (b *Bot) requireRegistered(ctx context.Context, m *telegram.Message) bool {
	uid := userID(m.From)
	chatID := chatIDOf(m)

	if !b.isMember(ctx, uid) {
		b.send(ctx, chatID, textJoinFirst, telegram.SendOptions{ParseMode: parseMarkdown, ReplyMarkup: b.joinMarkup()})
		return false
	}
	u, ok, err := b.users.Get(ctx, uid)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to load user")
		return false
	}
	if !ok || !u.Registered {
		b.reply(ctx, chatID, textRegisterFirst)
		return false
	}
	return true
}

func (b *Bot) handleReward(ctx context.Context, m *telegram.Message) {
	if !b.requireRegistered(ctx, m) {
		return
	}
	uid := userID(m.From)
	chatID := chatIDOf(m)

	u, _, err := b.users.Get(ctx, uid)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to load user")
		return
	}
	if len(u.RewardHistory) == 0 {
		b.reply(ctx, chatID, textNoRewardsYet)
		return
	}

	preview, parseMode := rewardPreview(u.LastRewards(b.cfg.Bot.HistoryPreview))
	name, err := b.username(ctx)
	if err != nil || name == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Falling back to default history file name")
		name = "rewards"
	}

	caption := preview
	if len([]rune(caption)) > maxCaption {
		b.send(ctx, chatID, preview, telegram.SendOptions{ParseMode: parseMode})
		caption = fmt.Sprintf("📄 Full history: %d rewards", len(u.RewardHistory))
	}
	err = b.api.SendDocument(ctx, chatID, name+".txt", historyDocument(u.Username, u.RewardHistory),
		caption, telegram.SendOptions{ParseMode: parseMode})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send reward history")
	}
}

func (b *Bot) handleRef(ctx context.Context, m *telegram.Message) {
	if !b.requireRegistered(ctx, m) {
		return
	}
	uid := userID(m.From)
	chatID := chatIDOf(m)

	u, _, err := b.users.Get(ctx, uid)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to load user")
		return
	}
	name, err := b.username(ctx)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to resolve bot username")
		return
	}
	link := fmt.Sprintf("https://t.me/%s?start=%s", name, uid)
	b.reply(ctx, chatID, textReferralDashboard(u.Referrals, link, b.cfg.Bot.RewardReferral))
}
