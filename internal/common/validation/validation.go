package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "reward-bot/internal/common/errors"
)

const (
	MinUsernameLength = 5
	MaxUsernameLength = 32

	// UploadExt is the only corpus upload extension accepted, case-insensitively.
	UploadExt = ".txt"
)

var (
	telegramUsernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{4,31}$`)
	chatIDRegex           = regexp.MustCompile(`^-?[0-9]+$`)
)

// ValidateChannel accepts a public @username or a numeric chat id.
func ValidateChannel(channel string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return fmt.Errorf("channel cannot be empty")
	}
	if chatIDRegex.MatchString(channel) {
		return nil
	}
	if !strings.HasPrefix(channel, "@") {
		return fmt.Errorf("channel must be @username or a numeric chat id")
	}
	if !IsValidUsername(channel[1:]) {
		return fmt.Errorf("channel username must start with a letter and contain only letters, numbers, and underscores, %d-%d characters",
			MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidateUserID checks a Telegram user id in its decimal string form.
func ValidateUserID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if !chatIDRegex.MatchString(id) {
		return fmt.Errorf("user id must be numeric")
	}
	return nil
}

func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}

// ValidateUploadName checks the document name of a corpus upload.
func ValidateUploadName(name string) error {
	if !strings.EqualFold(path.Ext(name), UploadExt) {
		return apperrors.NewInvalidUploadError(name, fmt.Sprintf("only %s files are allowed", UploadExt))
	}
	return nil
}

// ValidateUploadText checks that the uploaded data is UTF-8 text.
func ValidateUploadText(name string, data []byte) error {
	if !utf8.Valid(data) {
		return apperrors.NewInvalidUploadError(name, "file is not valid UTF-8")
	}
	return nil
}

func IsValidUsername(username string) bool {
	return telegramUsernameRegex.MatchString(username)
}
