package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PatternSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Scan struct {
		Tickers     []string      `yaml:"tickers"`
		Timeframes  []string      `yaml:"timeframes"`
		Patterns    []string      `yaml:"patterns"`
		Workers     int           `yaml:"workers"`
		TaskTimeout time.Duration `yaml:"task_timeout"`
	} `yaml:"scan"`
	Detection  Detection `yaml:"detection"`
	DataSource struct {
		Provider  string  `yaml:"provider"` // yahoo, rest or mock
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		RateLimit float64 `yaml:"rate_limit"` // requests per second
		Burst     int     `yaml:"burst"`
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Detection parameters not present in the file keep their defaults.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{Detection: DefaultDetection()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SENTINEL_TICKERS"); v != "" {
		c.Scan.Tickers = splitList(v)
	}
	if v := os.Getenv("SENTINEL_TIMEFRAMES"); v != "" {
		c.Scan.Timeframes = splitList(v)
	}
	if v := os.Getenv("SENTINEL_MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SENTINEL_MIN_CONFIDENCE %q: %v", model.ErrConfiguration, v, err)
		}
		c.Detection.MinConfidence = f
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		c.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Scan.Timeframes) == 0 {
		c.Scan.Timeframes = []string{string(model.Daily)}
	}
	if len(c.Scan.Patterns) == 0 {
		c.Scan.Patterns = []string{"all"}
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 8
	}
	if c.Scan.TaskTimeout == 0 {
		c.Scan.TaskTimeout = 5 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 2
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 4
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/pattern_sentinel.db"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9102"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks scan settings and the detection bundle.
func (c *Config) Validate() error {
	if len(c.Scan.Tickers) == 0 {
		return fmt.Errorf("%w: scan.tickers is required", model.ErrConfiguration)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("%w: scan.workers must be at least 1", model.ErrConfiguration)
	}
	if c.Scan.TaskTimeout <= 0 {
		return fmt.Errorf("%w: scan.task_timeout must be positive", model.ErrConfiguration)
	}
	if _, err := c.ScanTimeframes(); err != nil {
		return err
	}
	if _, err := c.ScanPatterns(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo":
		if err := c.validateYahooHistory(); err != nil {
			return err
		}
	case "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for the rest provider", model.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q", model.ErrConfiguration, c.DataSource.Provider)
	}
	if c.DataSource.RateLimit <= 0 || c.DataSource.Burst < 1 {
		return fmt.Errorf("%w: data_source rate limit must be positive", model.ErrConfiguration)
	}
	return c.Detection.Validate()
}

// YahooFourHourBars is roughly how many 4h bars Yahoo's 730 days of hourly
// history aggregate to: about 500 sessions of two buckets each.
const YahooFourHourBars = 1000

func (c *Config) validateYahooHistory() error {
	tfs, _ := c.ScanTimeframes()
	for _, tf := range tfs {
		if tf != model.FourHour {
			continue
		}
		if need := c.Detection.FourHour.Required(); need > YahooFourHourBars {
			return fmt.Errorf("%w: yahoo serves about %d 4h bars, detection.4h needs %d; lower detection.4h.lookback or use another provider",
				model.ErrConfiguration, YahooFourHourBars, need)
		}
	}
	return nil
}

// ValidateNotifier checks the Telegram settings required by serve.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: telegram.bot_token is required", model.ErrConfiguration)
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("%w: telegram.chat_id is required", model.ErrConfiguration)
	}
	return nil
}

// ScanTimeframes parses scan.timeframes.
func (c *Config) ScanTimeframes() ([]model.Timeframe, error) {
	out := make([]model.Timeframe, 0, len(c.Scan.Timeframes))
	for _, s := range c.Scan.Timeframes {
		tf, err := model.ParseTimeframe(s)
		if err != nil {
			return nil, fmt.Errorf("%w: scan.timeframes: %v", model.ErrConfiguration, err)
		}
		out = append(out, tf)
	}
	return out, nil
}

// ScanPatterns parses scan.patterns; "all" expands to every pattern kind.
func (c *Config) ScanPatterns() ([]model.PatternKind, error) {
	return ParsePatterns(c.Scan.Patterns)
}

// ParsePatterns parses pattern names, expanding "all".
func ParsePatterns(names []string) ([]model.PatternKind, error) {
	var out []model.PatternKind
	for _, s := range names {
		if s == "all" {
			return append([]model.PatternKind(nil), model.AllPatterns...), nil
		}
		k, err := model.ParsePattern(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no patterns selected", model.ErrConfiguration)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
