package bot

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "reward-bot/internal/common/errors"
	"reward-bot/internal/common/validation"
	"reward-bot/internal/features/reward/corpus"
	"reward-bot/internal/platform/telegram"
)

// requireAdmin reports whether m came from the admin. Non-admins get no
// reply; only /admin tells them it is restricted.
func (b *Bot) requireAdmin(ctx context.Context, m *telegram.Message) bool {
	if b.isAdmin(m.From) {
		return true
	}
	zerolog.Ctx(ctx).Warn().Str("text", m.Text).Msg("Admin command from non-admin")
	return false
}

func (b *Bot) handleAdmin(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		b.replyPlain(ctx, chatIDOf(m), textAdminOnly)
		return
	}
	b.replyPlain(ctx, chatIDOf(m), textAdminPanel)
}

func (b *Bot) handleUsers(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	n, err := b.users.Count(ctx)
	if err != nil {
		b.internalError(ctx, chatIDOf(m), err, "Failed to count users")
		return
	}
	b.replyPlain(ctx, chatIDOf(m), textUsers(n))
}

func (b *Bot) handleStock(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	s, err := b.ledger.Stock(ctx)
	if err != nil {
		b.internalError(ctx, chatIDOf(m), err, "Failed to compute stock")
		return
	}
	b.replyPlain(ctx, chatIDOf(m), textStock(s))
}

func (b *Bot) handleResetUsed(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	if err := b.ledger.Reset(ctx); err != nil {
		b.internalError(ctx, chatIDOf(m), err, "Failed to reset used messages")
		return
	}
	zerolog.Ctx(ctx).Info().Msg("Used message list reset")
	b.replyPlain(ctx, chatIDOf(m), textResetDone)
}

func (b *Bot) handleAddTxt(ctx context.Context, m *telegram.Message) {
	if !b.requireAdmin(ctx, m) {
		return
	}
	b.replyPlain(ctx, chatIDOf(m), textAddTxt(b.corpus.Separator()))
}

// handleDocument appends an uploaded .txt file to the corpus. Documents
// from anyone but the admin are ignored.
func (b *Bot) handleDocument(ctx context.Context, m *telegram.Message) {
	if !b.isAdmin(m.From) {
		return
	}
	chatID := chatIDOf(m)
	doc := m.Document
	if err := validation.ValidateUploadName(doc.FileName); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Rejected upload")
		b.replyPlain(ctx, chatID, textOnlyTxt)
		return
	}

	log := zerolog.Ctx(ctx).With().Str("file_name", doc.FileName).Logger()

	f, err := b.api.GetFile(ctx, doc.FileID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get file info")
		b.replyPlain(ctx, chatID, textUploadFailed)
		return
	}
	data, err := b.api.DownloadFile(ctx, f.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download file")
		b.replyPlain(ctx, chatID, textUploadFailed)
		return
	}
	if err := validation.ValidateUploadText(doc.FileName, data); err != nil {
		log.Warn().Err(err).Msg("Rejected upload")
		b.replyPlain(ctx, chatID, textUploadNotUTF8)
		return
	}
	blob := string(data)
	if len(corpus.Split(blob, b.corpus.Separator())) == 0 {
		log.Warn().Err(apperrors.NewInvalidUploadError(doc.FileName, "no messages")).Msg("Rejected upload")
		b.replyPlain(ctx, chatID, textUploadEmpty)
		return
	}

	before, err := b.corpus.Parse(ctx)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to parse corpus")
		return
	}
	if err := b.corpus.Append(ctx, blob); err != nil {
		b.internalError(ctx, chatID, err, "Failed to append corpus")
		return
	}
	after, err := b.corpus.Parse(ctx)
	if err != nil {
		b.internalError(ctx, chatID, err, "Failed to parse corpus")
		return
	}

	added := len(after) - len(before)
	log.Info().Int("added", added).Int("total", len(after)).Msg("Corpus extended")
	b.replyPlain(ctx, chatID, textFileAdded(doc.FileName, added, len(after)))
}
