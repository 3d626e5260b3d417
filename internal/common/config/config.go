package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"reward-bot/internal/common/validation"
)

const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Telegram struct {
		BotToken       string `env:"BOT_TOKEN,required,notEmpty"`
		APIURL         string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
		PollTimeoutSec int    `env:"POLL_TIMEOUT_SEC" envDefault:"30"`
	}

	Bot struct {
		ChannelUsername string `env:"CHANNEL_USERNAME,required,notEmpty"`
		AdminID         string `env:"ADMIN_ID,required,notEmpty"`
		RewardNewUser   int    `env:"REWARD_NEW_USER" envDefault:"2"`
		RewardReferral  int    `env:"REWARD_REFERRAL" envDefault:"3"`
		Separator       string `env:"SEPARATOR" envDefault:"---"`
		HistoryPreview  int    `env:"HISTORY_PREVIEW" envDefault:"5"`
	}

	Storage struct {
		Driver  string `env:"STORAGE_DRIVER" envDefault:"file"`
		DataDir string `env:"DATA_DIR" envDefault:"data"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		Prefix   string `env:"REDIS_PREFIX" envDefault:"rewardbot"`
	}

	// Ops server is disabled when HTTPAddr is empty.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:""`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Bot.Separator == "" {
		return fmt.Errorf("SEPARATOR must not be empty")
	}
	if err := validation.ValidateChannel(c.Bot.ChannelUsername); err != nil {
		return fmt.Errorf("invalid CHANNEL_USERNAME: %w", err)
	}
	if err := validation.ValidateUserID(c.Bot.AdminID); err != nil {
		return fmt.Errorf("invalid ADMIN_ID: %w", err)
	}
	if err := validation.ValidateNonNegativeInt(int64(c.Bot.RewardNewUser), "REWARD_NEW_USER"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeInt(int64(c.Bot.RewardReferral), "REWARD_REFERRAL"); err != nil {
		return err
	}
	if c.Bot.HistoryPreview <= 0 {
		c.Bot.HistoryPreview = 5
	}
	if c.Telegram.PollTimeoutSec < 0 {
		return fmt.Errorf("invalid POLL_TIMEOUT_SEC: %d", c.Telegram.PollTimeoutSec)
	}
	switch strings.ToLower(c.Storage.Driver) {
	case StorageFile, StorageRedis, StorageMemory:
		c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER: %q", c.Storage.Driver)
	}
	return nil
}

// RedisAddr returns host:port for the redis storage driver.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsAdmin reports whether id is the configured admin.
func (c *Config) IsAdmin(id string) bool {
	return c.Bot.AdminID != "" && strings.TrimSpace(id) == strings.TrimSpace(c.Bot.AdminID)
}
