package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "reward-bot/internal/common/errors"
)

func TestValidateChannel(t *testing.T) {
	tests := []struct {
		channel string
		valid   bool
	}{
		{"@rewards", true},
		{"@Reward_Bot_1", true},
		{"-1001234567890", true},
		{"rewards", false},
		{"@abc", false},
		{"@1rewards", false},
		{"@bad-name", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			err := ValidateChannel(tt.channel)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID("42"))
	assert.Error(t, ValidateUserID(""))
	assert.Error(t, ValidateUserID("admin"))
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUploadName("msgs.txt"))
	assert.NoError(t, ValidateUploadName("MSGS.TXT"))
	assert.True(t, apperrors.HasCode(ValidateUploadName("msgs.pdf"), apperrors.ErrCodeInvalidUpload))
	assert.Error(t, ValidateUploadName("txt"))

	assert.NoError(t, ValidateUploadText("a.txt", []byte("привет\n---\nhello")))
	err := ValidateUploadText("bad.txt", []byte{0xff, 0xfe})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidUpload))
	appErr, _ := apperrors.AsAppError(err)
	assert.Equal(t, "bad.txt", appErr.Details["file_name"])
}

func TestValidateNonNegativeInt(t *testing.T) {
	assert.NoError(t, ValidateNonNegativeInt(0, "n"))
	assert.EqualError(t, ValidateNonNegativeInt(-1, "n"), "n cannot be negative")
}
