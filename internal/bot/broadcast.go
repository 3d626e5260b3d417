package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"reward-bot/internal/platform/telegram"
)

// broadcastSessions tracks admin chats waiting for broadcast content.
// A chat moves idle -> awaiting on /broadcast and back to idle on
// /cancel or the next message.
type broadcastSessions struct {
	mu      sync.Mutex
	waiting map[string]struct{}
}

func newBroadcastSessions() *broadcastSessions {
	return &broadcastSessions{waiting: make(map[string]struct{})}
}

func (s *broadcastSessions) start(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiting[chatID] = struct{}{}
}

func (s *broadcastSessions) awaiting(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.waiting[chatID]
	return ok
}

// finish returns the chat to idle and reports whether it was awaiting.
func (s *broadcastSessions) finish(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.waiting[chatID]
	delete(s.waiting, chatID)
	return ok
}

func (b *Bot) handleBroadcast(ctx context.Context, m *telegram.Message, args []string) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	chatID := chatIDOf(m)
	if len(args) > 0 {
		body := commandArgs(m.Text)
		b.fanOut(ctx, chatID, func(ctx context.Context, to string) error {
			_, err := b.api.SendMessage(ctx, to, textBroadcast(body), telegram.SendOptions{})
			return err
		})
		return
	}
	b.sessions.start(chatID)
	b.replyPlain(ctx, chatID, textBroadcastPrompt)
}

func (b *Bot) handleCancel(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	chatID := chatIDOf(m)
	if b.sessions.finish(chatID) {
		b.replyPlain(ctx, chatID, textBroadcastCancelled)
		return
	}
	b.replyPlain(ctx, chatID, textNothingToCancel)
}

// handleBroadcastContent consumes the message following /broadcast.
func (b *Bot) handleBroadcastContent(ctx context.Context, m *telegram.Message) {
	chatID := chatIDOf(m)
	b.sessions.finish(chatID)

	if cmd, _, ok := parseCommand(m.Text); ok && cmd == "cancel" {
		b.replyPlain(ctx, chatID, textBroadcastCancelled)
		return
	}

	var send func(ctx context.Context, to string) error
	switch m.ContentType() {
	case telegram.ContentText:
		body := m.Text
		send = func(ctx context.Context, to string) error {
			_, err := b.api.SendMessage(ctx, to, textBroadcast(body), telegram.SendOptions{})
			return err
		}
	case telegram.ContentPhoto:
		largest := m.Photo[len(m.Photo)-1]
		send = func(ctx context.Context, to string) error {
			return b.api.SendPhoto(ctx, to, largest.FileID, m.Caption)
		}
	default:
		send = func(ctx context.Context, to string) error {
			return b.api.CopyMessage(ctx, to, chatID, m.MessageID)
		}
	}
	b.fanOut(ctx, chatID, send)
}

// fanOut sends to every known user and reports the tally to the admin
// chat by editing a status message.
func (b *Bot) fanOut(ctx context.Context, adminChat string, send func(ctx context.Context, to string) error) {
	ids, err := b.users.IDs(ctx)
	if err != nil {
		b.internalError(ctx, adminChat, err, "Failed to list users")
		return
	}

	status := b.send(ctx, adminChat, textBroadcastSending, telegram.SendOptions{})

	var sent, failed int
	for _, id := range ids {
		if err := send(ctx, id); err != nil {
			failed++
			zerolog.Ctx(ctx).Debug().Err(err).Str("recipient", id).Msg("Broadcast delivery failed")
			continue
		}
		sent++
	}
	zerolog.Ctx(ctx).Info().Int("sent", sent).Int("failed", failed).Msg("Broadcast finished")

	done := textBroadcastDone(sent, failed)
	if status != nil {
		if err := b.api.EditMessageText(ctx, adminChat, status.MessageID, done); err == nil {
			return
		}
	}
	b.replyPlain(ctx, adminChat, done)
}

// commandArgs returns everything after the command word, keeping line breaks.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}
