package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reward-bot/internal/common/config"
	"reward-bot/internal/features/user/models"
	"reward-bot/internal/platform/storage"
	"reward-bot/internal/platform/telegram"
)

const adminID = 1

type sentMessage struct {
	ChatID string
	Text   string
	Opts   telegram.SendOptions
}

type sentDocument struct {
	ChatID   string
	FileName string
	Data     []byte
	Caption  string
	Opts     telegram.SendOptions
}

type fakeAPI struct {
	mu sync.Mutex

	members   map[string]bool
	memberErr error
	failChats map[string]bool
	files     map[string][]byte
	panicSend bool

	messages  []sentMessage
	documents []sentDocument
	photos    []sentMessage
	copies    []string
	edits     []string
	answers   []string
	nextID    int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		members:   make(map[string]bool),
		failChats: make(map[string]bool),
		files:     make(map[string][]byte),
	}
}

var errBlocked = errors.New("bot was blocked by the user")

func (f *fakeAPI) GetMe(context.Context) (*telegram.User, error) {
	return &telegram.User{ID: 999, Username: "rewardbot", IsBot: true}, nil
}

func (f *fakeAPI) GetUpdates(context.Context, int64, int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID, text string, opts telegram.SendOptions) (*telegram.Message, error) {
	if f.panicSend {
		panic("send exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return nil, errBlocked
	}
	f.nextID++
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return &telegram.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, _ string, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, chatID, fileID, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return errBlocked
	}
	f.photos = append(f.photos, sentMessage{ChatID: chatID, Text: fileID + "|" + caption})
	return nil
}

func (f *fakeAPI) CopyMessage(_ context.Context, chatID, _ string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return errBlocked
	}
	f.copies = append(f.copies, chatID)
	return nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, _ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeAPI) GetChatMember(_ context.Context, _ string, userID string) (*telegram.ChatMember, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	if f.members[userID] {
		return &telegram.ChatMember{Status: "member"}, nil
	}
	return &telegram.ChatMember{Status: "left"}, nil
}

func (f *fakeAPI) GetFile(_ context.Context, fileID string) (*telegram.File, error) {
	return &telegram.File{FileID: fileID, FilePath: "documents/" + fileID}, nil
}

func (f *fakeAPI) DownloadFile(_ context.Context, filePath string) ([]byte, error) {
	data, ok := f.files[strings.TrimPrefix(filePath, "documents/")]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeAPI) SendDocument(_ context.Context, chatID, fileName string, data []byte, caption string, opts telegram.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, sentDocument{ChatID: chatID, FileName: fileName, Data: data, Caption: caption, Opts: opts})
	return nil
}

// textsTo returns the texts sent to chatID in order.
func (f *fakeAPI) textsTo(chatID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type harness struct {
	bot   *Bot
	api   *fakeAPI
	store storage.Store
	ctx   context.Context
}

func newHarness(t *testing.T, corpusText string) *harness {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Bot.ChannelUsername = "@rewards"
	cfg.Bot.AdminID = "1"
	cfg.Bot.RewardNewUser = 2
	cfg.Bot.RewardReferral = 3
	cfg.Bot.Separator = "---"
	cfg.Bot.HistoryPreview = 5

	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx, storage.Defaults()))
	if corpusText != "" {
		require.NoError(t, storage.SaveText(ctx, store, storage.DocMessages, corpusText))
	}

	api := newFakeAPI()
	return &harness{bot: New(cfg, api, store), api: api, store: store, ctx: ctx}
}

func (h *harness) send(id int64, text string) {
	h.bot.HandleUpdate(h.ctx, telegram.Update{Message: &telegram.Message{
		MessageID: 10,
		From:      &telegram.User{ID: id, Username: "tester"},
		Chat:      telegram.Chat{ID: id},
		Text:      text,
	}})
}

func (h *harness) sendMessage(m *telegram.Message) {
	h.bot.HandleUpdate(h.ctx, telegram.Update{Message: m})
}

func (h *harness) user(t *testing.T, id string) models.User {
	t.Helper()
	u, ok, err := h.bot.users.Get(h.ctx, id)
	require.NoError(t, err)
	require.True(t, ok, "user %s should exist", id)
	return u
}

func corpusOf(msgs ...string) string {
	return strings.Join(msgs, "\n---\n")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		cmd  string
		args []string
		ok   bool
	}{
		{"/start", "start", []string{}, true},
		{"/start 42", "start", []string{"42"}, true},
		{"/Register@rewardbot", "register", []string{}, true},
		{"hello", "", nil, false},
		{"/", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, args, ok := parseCommand(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cmd, cmd)
			if tt.ok {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, "hello world", commandArgs("/broadcast hello world"))
	assert.Equal(t, "line1\nline2", commandArgs("/broadcast line1\nline2"))
	assert.Equal(t, "", commandArgs("/broadcast"))
}

func TestStartTracksReferralAndGatesJoin(t *testing.T) {
	h := newHarness(t, "")

	h.send(200, "/start 100")

	u := h.user(t, "200")
	assert.False(t, u.Joined)
	assert.False(t, u.Registered)

	referrer, ok, err := h.bot.referrals.Pending(h.ctx, "200")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "100", referrer)

	require.Len(t, h.api.messages, 1)
	msg := h.api.messages[0]
	assert.Equal(t, textWelcome, msg.Text)
	require.NotNil(t, msg.Opts.ReplyMarkup)
	assert.Equal(t, "https://t.me/rewards", msg.Opts.ReplyMarkup.InlineKeyboard[0][0].URL)
	assert.Equal(t, callbackCheckJoin, msg.Opts.ReplyMarkup.InlineKeyboard[1][0].CallbackData)
}

func TestStartMemberMarksJoined(t *testing.T) {
	h := newHarness(t, "")
	h.api.members["200"] = true

	h.send(200, "/start")

	assert.True(t, h.user(t, "200").Joined)
	assert.Equal(t, []string{textJoinConfirmed}, h.api.textsTo("200"))
}

func TestMembershipCheckFailsClosed(t *testing.T) {
	h := newHarness(t, corpusOf("m1", "m2"))
	h.api.members["200"] = true
	h.api.memberErr = errors.New("chat not found")

	h.send(200, "/register")

	assert.Equal(t, []string{textAccessDenied}, h.api.textsTo("200"))
	_, ok, err := h.bot.users.Get(h.ctx, "200")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterGrantsAndResolvesReferral(t *testing.T) {
	h := newHarness(t, corpusOf("m1", "m2", "m3", "m4", "m5", "m6", "m7"))
	h.api.members["100"] = true
	h.api.members["200"] = true

	h.send(100, "/start")
	h.send(100, "/register")
	h.send(200, "/start 100")
	h.send(200, "/register")

	x := h.user(t, "100")
	assert.True(t, x.Registered)
	assert.Equal(t, 1, x.Referrals)
	assert.Equal(t, []string{"m1", "m2", "m5", "m6", "m7"}, x.RewardHistory)
	assert.Equal(t, 5, x.RewardTaken)

	y := h.user(t, "200")
	assert.True(t, y.Registered)
	assert.True(t, y.Joined)
	assert.Equal(t, []string{"m3", "m4"}, y.RewardHistory)
	require.NotNil(t, y.ReferredBy)
	assert.Equal(t, "100", *y.ReferredBy)

	_, pending, err := h.bot.referrals.Pending(h.ctx, "200")
	require.NoError(t, err)
	assert.False(t, pending)

	assert.Contains(t, h.api.textsTo("100"), textReferralSuccess(3))
	assert.Contains(t, h.api.textsTo("200"), textReward("m3"))
	assert.Contains(t, h.api.textsTo("100"), textReward("m7"))
}

func TestRegisterTwice(t *testing.T) {
	h := newHarness(t, corpusOf("m1", "m2", "m3", "m4"))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/register")

	u := h.user(t, "200")
	assert.Equal(t, []string{"m1", "m2"}, u.RewardHistory)
	texts := h.api.textsTo("200")
	assert.Equal(t, textAlreadyRegistered, texts[len(texts)-1])
}

func TestRegisterWithExhaustedStock(t *testing.T) {
	h := newHarness(t, corpusOf("only"))
	h.api.members["100"] = true
	h.api.members["200"] = true

	h.send(100, "/start")
	h.send(200, "/start 100")
	h.send(200, "/register")

	u := h.user(t, "200")
	assert.True(t, u.Registered)
	assert.Empty(t, u.RewardHistory)
	assert.Nil(t, u.ReferredBy)
	assert.Equal(t, []string{textJoinConfirmed, textRegistered(2), textStockExhausted}, h.api.textsTo("200"))

	referrer := h.user(t, "100")
	assert.Zero(t, referrer.Referrals)
	assert.Empty(t, referrer.RewardHistory)
	assert.NotContains(t, h.api.textsTo("100"), textReferralSuccess(3))

	pendingReferrer, pending, err := h.bot.referrals.Pending(h.ctx, "200")
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Equal(t, "100", pendingReferrer)
}

func TestRewardNeedsRegistration(t *testing.T) {
	h := newHarness(t, "")
	h.api.members["200"] = true

	h.send(200, "/reward")

	assert.Equal(t, []string{textRegisterFirst}, h.api.textsTo("200"))
}

func TestRewardShowsPreviewAndHistoryFile(t *testing.T) {
	h := newHarness(t, corpusOf("m1", "m2"))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/reward")

	require.Len(t, h.api.documents, 1)
	doc := h.api.documents[0]
	assert.Equal(t, "200", doc.ChatID)
	assert.Equal(t, "rewardbot.txt", doc.FileName)
	preview, mode := rewardPreview([]string{"m2", "m1"})
	assert.Equal(t, preview, doc.Caption)
	assert.Equal(t, parseMarkdown, mode)
	assert.Equal(t, parseMarkdown, doc.Opts.ParseMode)
	assert.Contains(t, string(doc.Data), "[1] m1")
	assert.Contains(t, string(doc.Data), "[2] m2")
}

func TestRewardWithoutHistory(t *testing.T) {
	h := newHarness(t, "")
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/reward")

	texts := h.api.textsTo("200")
	assert.Equal(t, textNoRewardsYet, texts[len(texts)-1])
	assert.Empty(t, h.api.documents)
}

func TestRefShowsLink(t *testing.T) {
	h := newHarness(t, corpusOf("m1", "m2"))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/ref")

	texts := h.api.textsTo("200")
	assert.Equal(t, textReferralDashboard(0, "https://t.me/rewardbot?start=200", 3), texts[len(texts)-1])
}

func TestCheckJoinCallback(t *testing.T) {
	h := newHarness(t, "")

	cb := func() {
		h.bot.HandleUpdate(h.ctx, telegram.Update{CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb1",
			From:    telegram.User{ID: 200, Username: "y"},
			Message: &telegram.Message{Chat: telegram.Chat{ID: 200}},
			Data:    callbackCheckJoin,
		}})
	}

	cb()
	assert.Equal(t, []string{textNotJoinedYet}, h.api.answers)
	assert.Empty(t, h.api.textsTo("200"))

	h.api.members["200"] = true
	cb()
	assert.True(t, h.user(t, "200").Joined)
	assert.Equal(t, []string{textJoinConfirmed}, h.api.textsTo("200"))
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	h := newHarness(t, corpusOf("a", "b", "c"))

	for _, cmd := range []string{"/users", "/stock", "/resetused", "/addtxt", "/broadcast", "/cancel"} {
		h.send(200, cmd)
	}
	assert.Empty(t, h.api.textsTo("200"))
	assert.False(t, h.bot.sessions.awaiting("200"))

	h.send(200, "/admin")
	assert.Equal(t, []string{textAdminOnly}, h.api.textsTo("200"))

	s, err := h.bot.ledger.Stock(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
}

func TestAdminStockAndReset(t *testing.T) {
	h := newHarness(t, corpusOf("a", "b", "c"))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(adminID, "/stock")
	h.send(adminID, "/users")
	h.send(adminID, "/resetused")
	h.send(adminID, "/stock")

	texts := h.api.textsTo("1")
	require.Len(t, texts, 4)
	assert.Contains(t, texts[0], "Used Messages: 2")
	assert.Contains(t, texts[0], "Remaining Messages: 1")
	assert.Equal(t, textUsers(1), texts[1])
	assert.Equal(t, textResetDone, texts[2])
	assert.Contains(t, texts[3], "Remaining Messages: 3")
}

func TestDocumentUpload(t *testing.T) {
	h := newHarness(t, corpusOf("a"))
	h.api.files["f1"] = []byte("b\n---\nc\n")
	h.api.files["f2"] = []byte{0xff, 0xfe}
	h.api.files["f3"] = []byte(" \n---\n ")

	upload := func(from int64, name, fileID string) {
		h.sendMessage(&telegram.Message{
			From:     &telegram.User{ID: from},
			Chat:     telegram.Chat{ID: from},
			Document: &telegram.Document{FileID: fileID, FileName: name},
		})
	}

	upload(200, "msgs.txt", "f1")
	assert.Empty(t, h.api.textsTo("200"))

	upload(adminID, "msgs.pdf", "f1")
	upload(adminID, "msgs.TXT", "f1")
	upload(adminID, "bad.txt", "f2")
	upload(adminID, "empty.txt", "f3")

	assert.Equal(t, []string{
		textOnlyTxt,
		textFileAdded("msgs.TXT", 2, 3),
		textUploadNotUTF8,
		textUploadEmpty,
	}, h.api.textsTo("1"))

	msgs, err := h.bot.corpus.Parse(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, msgs)
}

func TestBroadcastTwoStep(t *testing.T) {
	h := newHarness(t, "")
	h.send(200, "/start")
	h.send(300, "/start")
	h.send(400, "/start")
	h.api.failChats["400"] = true

	h.send(adminID, "/broadcast")
	assert.True(t, h.bot.sessions.awaiting("1"))

	h.send(adminID, "hello all")
	assert.False(t, h.bot.sessions.awaiting("1"))

	assert.Contains(t, h.api.textsTo("200"), textBroadcast("hello all"))
	assert.Contains(t, h.api.textsTo("300"), textBroadcast("hello all"))
	require.Len(t, h.api.edits, 1)
	assert.Equal(t, textBroadcastDone(2, 1), h.api.edits[0])
}

func TestBroadcastPhotoAndOther(t *testing.T) {
	h := newHarness(t, "")
	h.send(200, "/start")

	h.send(adminID, "/broadcast")
	h.sendMessage(&telegram.Message{
		MessageID: 5,
		From:      &telegram.User{ID: adminID},
		Chat:      telegram.Chat{ID: adminID},
		Caption:   "look",
		Photo:     []telegram.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	})
	require.Len(t, h.api.photos, 1)
	assert.Equal(t, "200", h.api.photos[0].ChatID)
	assert.Equal(t, "large|look", h.api.photos[0].Text)

	h.send(adminID, "/broadcast")
	h.sendMessage(&telegram.Message{
		MessageID: 6,
		From:      &telegram.User{ID: adminID},
		Chat:      telegram.Chat{ID: adminID},
		Document:  &telegram.Document{FileID: "doc", FileName: "promo.pdf"},
	})
	assert.Equal(t, []string{"200"}, h.api.copies)
	assert.Len(t, h.api.edits, 2)
}

func TestBroadcastInlineAndCancel(t *testing.T) {
	h := newHarness(t, "")
	h.send(200, "/start")

	h.send(adminID, "/broadcast hi there")
	assert.Contains(t, h.api.textsTo("200"), textBroadcast("hi there"))
	assert.False(t, h.bot.sessions.awaiting("1"))

	h.send(adminID, "/broadcast")
	h.send(adminID, "/cancel")
	assert.False(t, h.bot.sessions.awaiting("1"))

	h.send(adminID, "/cancel")
	texts := h.api.textsTo("1")
	assert.Equal(t, textBroadcastCancelled, texts[len(texts)-2])
	assert.Equal(t, textNothingToCancel, texts[len(texts)-1])
	assert.Len(t, h.api.textsTo("200"), 2)
}

func TestHandleUpdateRecoversPanic(t *testing.T) {
	h := newHarness(t, "")
	h.api.panicSend = true

	assert.NotPanics(t, func() { h.send(200, "/cmds") })
}

func TestDeliverRewardParseMode(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.bot.DeliverReward(h.ctx, "200", "plain"))
	require.NoError(t, h.bot.DeliverReward(h.ctx, "200", "has `tick`"))

	require.Len(t, h.api.messages, 2)
	assert.Equal(t, parseMarkdown, h.api.messages[0].Opts.ParseMode)
	assert.Empty(t, h.api.messages[1].Opts.ParseMode)
}

func TestStats(t *testing.T) {
	h := newHarness(t, corpusOf("a", "b", "c"))
	h.api.members["200"] = true
	h.send(200, "/register")

	s, err := h.bot.Stats(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Users)
	assert.Equal(t, 3, s.Stock.Total)
	assert.Equal(t, 1, s.Stock.Remaining)
}

func TestRewardLongPreviewFallsBack(t *testing.T) {
	long1 := strings.Repeat("a", 600)
	long2 := strings.Repeat("b", 600)
	h := newHarness(t, corpusOf(long1, long2))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/reward")

	preview, _ := rewardPreview([]string{long2, long1})
	texts := h.api.textsTo("200")
	assert.Equal(t, preview, texts[len(texts)-1])

	require.Len(t, h.api.documents, 1)
	assert.Equal(t, "📄 Full history: 2 rewards", h.api.documents[0].Caption)
}

func TestRewardPreviewWithBacktickIsPlain(t *testing.T) {
	h := newHarness(t, corpusOf("code`x", "m2"))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/reward")

	require.Len(t, h.api.documents, 1)
	doc := h.api.documents[0]
	assert.Empty(t, doc.Opts.ParseMode)
	assert.Equal(t, "💎 Your last 2 rewards:\n\n🔹 m2\n━━━━━━━━━━━━━━━━\n🔹 code`x\n━━━━━━━━━━━━━━━━\n", doc.Caption)
	assert.NotContains(t, doc.Caption, "*")
}

func TestRewardLongPlainPreviewFallsBack(t *testing.T) {
	h := newHarness(t, corpusOf(strings.Repeat("`", 600), strings.Repeat("b", 600)))
	h.api.members["200"] = true

	h.send(200, "/register")
	h.send(200, "/reward")

	last := h.api.messages[len(h.api.messages)-1]
	assert.Equal(t, "200", last.ChatID)
	assert.Empty(t, last.Opts.ParseMode)
	require.Len(t, h.api.documents, 1)
	assert.Empty(t, h.api.documents[0].Opts.ParseMode)
}
