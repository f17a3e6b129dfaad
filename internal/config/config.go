package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | noop
	Username string  `yaml:"username"`
	AdminIDs []int64 `yaml:"admin_ids"`
	// MailboxSize bounds queued events per chat actor.
	MailboxSize int `yaml:"mailbox_size"`
	// ActorIdle is how long an idle chat actor lives before exiting.
	ActorIdle time.Duration `yaml:"actor_idle"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ConversationConfig controls the auto-vanish policy.
type ConversationConfig struct {
	Retention time.Duration `yaml:"retention"`  // history lifetime after the last bot message
	NoticeTTL time.Duration `yaml:"notice_ttl"` // lifetime of the "history cleared" notice
}

type ShopConfig struct {
	BaseCurrency       string   `yaml:"base_currency"`
	DefaultLanguage    string   `yaml:"default_language"`
	Languages          []string `yaml:"languages"`
	Currencies         []string `yaml:"currencies"`
	CustomCommandSlots int      `yaml:"custom_command_slots"`
	PageSize           int      `yaml:"page_size"`
}

type CurrencyConfig struct {
	RatesURL string        `yaml:"rates_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	MessagesPerMinute  int `yaml:"messages_per_minute"`
	CallbacksPerMinute int `yaml:"callbacks_per_minute"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	Admin        AdminConfig        `yaml:"admin"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Conversation ConversationConfig `yaml:"conversation"`
	Shop         ShopConfig         `yaml:"shop"`
	Currency     CurrencyConfig     `yaml:"currency"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then lets a .env file and the process
// environment override secrets.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies env overrides and defaults, and validates.
func Parse(raw []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.Bot.Token, "BOT_TOKEN")
	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Redis.URL, "REDIS_URL")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.Admin.APIKey, "ADMIN_API_KEY")
	override(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.MailboxSize <= 0 {
		cfg.Bot.MailboxSize = 16
	}
	if cfg.Bot.ActorIdle <= 0 {
		cfg.Bot.ActorIdle = 2 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Conversation.Retention <= 0 {
		cfg.Conversation.Retention = 6 * time.Hour
	}
	if cfg.Conversation.NoticeTTL <= 0 {
		cfg.Conversation.NoticeTTL = time.Hour
	}
	if cfg.Shop.BaseCurrency == "" {
		cfg.Shop.BaseCurrency = "USD"
	}
	cfg.Shop.BaseCurrency = strings.ToUpper(cfg.Shop.BaseCurrency)
	if cfg.Shop.DefaultLanguage == "" {
		cfg.Shop.DefaultLanguage = "en"
	}
	if len(cfg.Shop.Languages) == 0 {
		cfg.Shop.Languages = []string{"en", "ru", "fa"}
	}
	if len(cfg.Shop.Currencies) == 0 {
		cfg.Shop.Currencies = []string{cfg.Shop.BaseCurrency}
	}
	if cfg.Shop.CustomCommandSlots <= 0 {
		cfg.Shop.CustomCommandSlots = 10
	}
	if cfg.Shop.PageSize <= 0 {
		cfg.Shop.PageSize = 6
	}
	if cfg.Currency.CacheTTL <= 0 {
		cfg.Currency.CacheTTL = 30 * time.Minute
	}
	if cfg.Currency.Timeout <= 0 {
		cfg.Currency.Timeout = 5 * time.Second
	}
	if cfg.RateLimit.MessagesPerMinute <= 0 {
		cfg.RateLimit.MessagesPerMinute = 20
	}
	if cfg.RateLimit.CallbacksPerMinute <= 0 {
		cfg.RateLimit.CallbacksPerMinute = 40
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
