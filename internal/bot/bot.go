// Package bot wires the reward features to Telegram updates.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reward-bot/internal/common/config"
	"reward-bot/internal/common/logger"
	"reward-bot/internal/features/reward/corpus"
	"reward-bot/internal/features/reward/ledger"
	rewardsvc "reward-bot/internal/features/reward/service"
	referralsvc "reward-bot/internal/features/referral/service"
	"reward-bot/internal/features/user/repository"
	"reward-bot/internal/platform/storage"
	"reward-bot/internal/platform/telegram"
)

// API is the subset of the Telegram client the bot uses.
type API interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID, text string, opts telegram.SendOptions) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error
	SendPhoto(ctx context.Context, chatID, fileID, caption string) error
	CopyMessage(ctx context.Context, chatID, fromChatID string, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	GetChatMember(ctx context.Context, chatID, userID string) (*telegram.ChatMember, error)
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
	SendDocument(ctx context.Context, chatID, fileName string, data []byte, caption string, opts telegram.SendOptions) error
}

// Stats is the read-only view served by the ops server.
type Stats struct {
	Stock ledger.Stock `json:"stock"`
	Users int          `json:"users"`
}

type Bot struct {
	api API
	cfg *config.Config

	users     *repository.Registry
	corpus    *corpus.Store
	ledger    *ledger.Ledger
	allocator *rewardsvc.Allocator
	referrals *referralsvc.Resolver
	sessions  *broadcastSessions

	meMu        sync.Mutex
	botUsername string
}

// New builds the bot and every feature component over one store.
func New(cfg *config.Config, api API, store storage.Store) *Bot {
	b := &Bot{
		api:      api,
		cfg:      cfg,
		users:    repository.NewRegistry(store),
		corpus:   corpus.NewStore(store, cfg.Bot.Separator),
		sessions: newBroadcastSessions(),
	}
	b.ledger = ledger.New(store, b.corpus)
	b.allocator = rewardsvc.NewAllocator(b.ledger, b.users, b)
	b.referrals = referralsvc.NewResolver(store, b.users, b.allocator, b, cfg.Bot.RewardReferral)
	return b
}

// Run long-polls Telegram and handles updates one at a time until ctx ends.
func (b *Bot) Run(ctx context.Context) error {
	if name, err := b.username(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to resolve bot username")
	} else {
		logger.Info().Str("bot", name).Msg("Bot is running")
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := b.api.GetUpdates(ctx, offset, b.cfg.Telegram.PollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msg("Failed to fetch updates")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, u := range updates {
			b.HandleUpdate(ctx, u)
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
		}
	}
}

// HandleUpdate processes one update. Panics are recovered so one bad
// update never stops the loop.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	lctx := logger.With().
		Int64("update_id", u.UpdateID).
		Str("trace_id", uuid.NewString())
	if from := updateSender(u); from != nil {
		lctx = lctx.Int64("user_id", from.ID)
	}
	l := lctx.Logger()
	ctx = l.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			l.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Panic recovered while handling update")
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func updateSender(u telegram.Update) *telegram.User {
	switch {
	case u.CallbackQuery != nil:
		return &u.CallbackQuery.From
	case u.Message != nil:
		return u.Message.From
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, m *telegram.Message) {
	if m.From == nil {
		return
	}
	chatID := chatIDOf(m)

	// A pending broadcast capture takes the admin's next message, whatever it is.
	if b.isAdmin(m.From) && b.sessions.awaiting(chatID) {
		b.handleBroadcastContent(ctx, m)
		return
	}

	if m.Document != nil {
		b.handleDocument(ctx, m)
		return
	}

	cmd, args, ok := parseCommand(m.Text)
	if !ok {
		return
	}

	switch cmd {
	case "start":
		b.handleStart(ctx, m, args)
	case "register":
		b.handleRegister(ctx, m)
	case "reward":
		b.handleReward(ctx, m)
	case "ref":
		b.handleRef(ctx, m)
	case "cmds", "help":
		b.reply(ctx, chatID, textCommands)
	case "admin":
		b.handleAdmin(ctx, m)
	case "users":
		b.handleUsers(ctx, m)
	case "stock":
		b.handleStock(ctx, m)
	case "resetused":
		b.handleResetUsed(ctx, m)
	case "addtxt":
		b.handleAddTxt(ctx, m)
	case "broadcast":
		b.handleBroadcast(ctx, m, args)
	case "cancel":
		b.handleCancel(ctx, m)
	default:
		zerolog.Ctx(ctx).Debug().Str("command", cmd).Msg("Ignoring unknown command")
	}
}

// parseCommand splits "/cmd@bot a b" into ("cmd", ["a", "b"]).
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd == "" {
		return "", nil, false
	}
	return strings.ToLower(cmd), fields[1:], true
}

func userID(u *telegram.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func chatIDOf(m *telegram.Message) string {
	return strconv.FormatInt(m.Chat.ID, 10)
}

func (b *Bot) isAdmin(u *telegram.User) bool {
	return u != nil && b.cfg.IsAdmin(userID(u))
}

// username returns the bot's @username, fetched once.
func (b *Bot) username(ctx context.Context) (string, error) {
	b.meMu.Lock()
	defer b.meMu.Unlock()
	if b.botUsername != "" {
		return b.botUsername, nil
	}
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return "", err
	}
	b.botUsername = me.Username
	return b.botUsername, nil
}

// isMember fails closed: any API error counts as not joined.
func (b *Bot) isMember(ctx context.Context, uid string) bool {
	m, err := b.api.GetChatMember(ctx, b.cfg.Bot.ChannelUsername, uid)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("channel", b.cfg.Bot.ChannelUsername).Msg("Error checking join status")
		return false
	}
	switch m.Status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

func (b *Bot) joinMarkup() *telegram.InlineKeyboardMarkup {
	channel := strings.TrimPrefix(b.cfg.Bot.ChannelUsername, "@")
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "📢 Join channel", URL: "https://t.me/" + channel}},
		{{Text: "✅ Check join", CallbackData: callbackCheckJoin}},
	}}
}

// reply sends Markdown text and logs, rather than returns, delivery errors.
func (b *Bot) reply(ctx context.Context, chatID, text string) {
	b.send(ctx, chatID, text, telegram.SendOptions{ParseMode: parseMarkdown})
}

func (b *Bot) replyPlain(ctx context.Context, chatID, text string) {
	b.send(ctx, chatID, text, telegram.SendOptions{})
}

func (b *Bot) send(ctx context.Context, chatID, text string, opts telegram.SendOptions) *telegram.Message {
	msg, err := b.api.SendMessage(ctx, chatID, text, opts)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("chat_id", chatID).Msg("Failed to send message")
		return nil
	}
	return msg
}

func (b *Bot) internalError(ctx context.Context, chatID string, err error, what string) {
	zerolog.Ctx(ctx).Error().Err(err).Msg(what)
	b.replyPlain(ctx, chatID, textInternalError)
}

// DeliverReward sends one reward text to a user.
func (b *Bot) DeliverReward(ctx context.Context, uid, text string) error {
	opts := telegram.SendOptions{ParseMode: parseMarkdown}
	if strings.Contains(text, "`") {
		opts.ParseMode = ""
	}
	_, err := b.api.SendMessage(ctx, uid, textReward(text), opts)
	return err
}

func (b *Bot) NotifyReferral(ctx context.Context, referrerID string, bonus int) error {
	_, err := b.api.SendMessage(ctx, referrerID, textReferralSuccess(bonus), telegram.SendOptions{ParseMode: parseMarkdown})
	return err
}

func (b *Bot) NotifyStockExhausted(ctx context.Context, uid string) error {
	_, err := b.api.SendMessage(ctx, uid, textStockExhausted, telegram.SendOptions{ParseMode: parseMarkdown})
	return err
}

func (b *Bot) Stats(ctx context.Context) (Stats, error) {
	stock, err := b.ledger.Stock(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stock: %w", err)
	}
	n, err := b.users.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	return Stats{Stock: stock, Users: n}, nil
}
