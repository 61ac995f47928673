package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/remindme/server/timezone"
)

// Profile is the configuration to start the bot.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the ops HTTP server
	Addr string
	// Port is the binding port for the ops HTTP server, 0 disables it
	Port int
	// Data is the data directory
	Data string
	// DSN points to where remindme stores its firing records
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the bot
	Version string
	// Timezone is the civil timezone used for day/time arithmetic (IANA name)
	Timezone string

	// Telegram transport
	TelegramToken   string  // REMINDME_TELEGRAM_TOKEN (legacy: TG_KEY)
	TelegramBaseURL string  // REMINDME_TELEGRAM_BASE_URL (default: https://api.telegram.org)
	AllowedChats    []int64 // REMINDME_ALLOWED_CHATS (legacy: TG_USERS), comma separated
	PollTimeout     time.Duration

	// Interpreter
	AIOpenAIAPIKey  string // REMINDME_AI_OPENAI_API_KEY (legacy: OAI_TOKEN)
	AIOpenAIBaseURL string // REMINDME_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AILLMModel      string // REMINDME_AI_LLM_MODEL (default: gpt-3.5-turbo)

	// Loops
	FiringInterval      time.Duration
	IntakeInterval      time.Duration
	IntakeConcurrency   int
	InterpretsPerMinute int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Location returns the configured civil timezone, falling back to UTC.
func (p *Profile) Location() *time.Location {
	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		return timezone.UTC
	}
	return loc
}

// IsChatAllowed reports whether updates from chatID should be handled.
func (p *Profile) IsChatAllowed(chatID int64) bool {
	for _, id := range p.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// ParseChatIDs parses a comma separated list of chat ids.
func ParseChatIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("no chat ids given")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FromEnv loads configuration from environment variables.
// Supports both REMINDME_* (new) and the legacy bot variable names.
// Values already set on the profile are kept when no variable is present.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey, current string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		if legacyKey != "" {
			if val := os.Getenv(legacyKey); val != "" {
				return val
			}
		}
		return current
	}

	p.TelegramToken = getEnvWithFallback("REMINDME_TELEGRAM_TOKEN", "TG_KEY", p.TelegramToken)
	p.TelegramBaseURL = getEnvWithFallback("REMINDME_TELEGRAM_BASE_URL", "", p.TelegramBaseURL)
	p.AIOpenAIAPIKey = getEnvWithFallback("REMINDME_AI_OPENAI_API_KEY", "OAI_TOKEN", p.AIOpenAIAPIKey)
	p.AIOpenAIBaseURL = getEnvWithFallback("REMINDME_AI_OPENAI_BASE_URL", "", p.AIOpenAIBaseURL)
	p.AILLMModel = getEnvWithFallback("REMINDME_AI_LLM_MODEL", "", p.AILLMModel)
	p.DSN = getEnvWithFallback("REMINDME_DSN", "CONN_STRING", p.DSN)
	p.Timezone = getEnvWithFallback("REMINDME_TIMEZONE", "", p.Timezone)

	if raw := getEnvWithFallback("REMINDME_ALLOWED_CHATS", "TG_USERS", ""); raw != "" {
		ids, err := ParseChatIDs(raw)
		if err != nil {
			slog.Warn("ignoring invalid allowed chats", slog.String("value", raw), slog.String("error", err.Error()))
		} else {
			p.AllowedChats = ids
		}
	}

	p.applyDefaults()
}

func (p *Profile) applyDefaults() {
	if p.TelegramBaseURL == "" {
		p.TelegramBaseURL = "https://api.telegram.org"
	}
	if p.AIOpenAIBaseURL == "" {
		p.AIOpenAIBaseURL = "https://api.openai.com/v1"
	}
	if p.AILLMModel == "" {
		p.AILLMModel = "gpt-3.5-turbo"
	}
	if p.Timezone == "" {
		p.Timezone = timezone.DefaultTimezone
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.FiringInterval <= 0 {
		p.FiringInterval = 5 * time.Second
	}
	if p.IntakeInterval <= 0 {
		p.IntakeInterval = 500 * time.Millisecond
	}
	if p.PollTimeout <= 0 {
		p.PollTimeout = 25 * time.Second
	}
	if p.IntakeConcurrency <= 0 {
		p.IntakeConcurrency = 16
	}
	if p.InterpretsPerMinute <= 0 {
		p.InterpretsPerMinute = 20
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	p.applyDefaults()

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}
	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("invalid timezone %q", p.Timezone)
	}

	if p.Driver == "postgres" {
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
		return nil
	}
	if p.DSN != "" {
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "remindme")
		} else {
			p.Data = "/var/opt/remindme"
		}
		if err := os.MkdirAll(p.Data, 0770); err != nil {
			slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	p.DSN = filepath.Join(dataDir, fmt.Sprintf("remindme_%s.db", p.Mode))
	return nil
}

// ValidateBot checks the settings needed to talk to the chat transport and the interpreter.
func (p *Profile) ValidateBot() error {
	if p.TelegramToken == "" {
		return errors.New("telegram token is required (REMINDME_TELEGRAM_TOKEN)")
	}
	if p.AIOpenAIAPIKey == "" {
		return errors.New("interpreter api key is required (REMINDME_AI_OPENAI_API_KEY)")
	}
	if len(p.AllowedChats) == 0 {
		return errors.New("at least one allowed chat is required (REMINDME_ALLOWED_CHATS)")
	}
	return nil
}
