package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

var (
	ErrInvalidStrategy = errors.New("strategy must be \"tree\" or \"pattern\"")
	ErrInvalidTimeout  = errors.New("fetch_timeout must be positive")
	ErrInvalidScheme   = errors.New("default_scheme must be \"http\" or \"https\"")
	ErrMissingAdmin    = errors.New("telegram_admin_chat_id is required with telegram_bot_token")
)

type Config struct {
	OutputDir     string        `hcl:"output_dir" env:"OUTPUT_DIR" default:"liste_des_flux"`
	Strategy      string        `hcl:"strategy" env:"STRATEGY" default:"tree"`
	Keywords      []string      `hcl:"keywords" env:"KEYWORDS" default:"bsv,bulletin"`
	UserAgent     string        `hcl:"user_agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; feedmaker/1.0)"`
	FetchTimeout  time.Duration `hcl:"fetch_timeout" env:"FETCH_TIMEOUT" default:"15s"`
	DefaultScheme string        `hcl:"default_scheme" env:"DEFAULT_SCHEME" default:"https"`
	VerifyOutput  bool          `hcl:"verify_output" env:"VERIFY_OUTPUT" default:"true"`
	Insecure      bool          `hcl:"insecure" env:"INSECURE"`
	LogLevel      string        `hcl:"log_level" env:"LOG_LEVEL" default:"info"`

	TelegramBotToken    string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminChatID int64  `hcl:"telegram_admin_chat_id" env:"TELEGRAM_ADMIN_CHAT_ID"`
}

// Load reads defaults, the config files and the FEEDMAKER_* environment, in
// that order. Later files override earlier ones; extraFiles must exist.
func Load(extraFiles ...string) (Config, error) {
	for _, f := range extraFiles {
		if _, err := os.Stat(f); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:  true,
		MergeFiles: true,
		EnvPrefix:  "FEEDMAKER",
		Files: append(
			[]string{"./feedmaker.hcl", "./feedmaker.local.hcl", "$HOME/.config/feedmaker/config.hcl"},
			extraFiles...,
		),
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Strategy {
	case "tree", "pattern":
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidStrategy, c.Strategy)
	}

	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch strings.ToLower(c.DefaultScheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidScheme, c.DefaultScheme)
	}

	if c.TelegramBotToken != "" && c.TelegramAdminChatID == 0 {
		return ErrMissingAdmin
	}

	return nil
}

// Level maps log_level to a slog level. Unknown values give info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		slog.Warn("unknown log level, using info", "log_level", c.LogLevel)
		return slog.LevelInfo
	}

	return lvl
}
