package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/logger"
	"StockLens/internal/model"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Log        logger.Config  `yaml:"log"`
	DataSource DataSource     `yaml:"data_source"`
	Universe   []model.Symbol `yaml:"universe" validate:"dive"`
	Store      Store          `yaml:"store"`
	Ingest     Ingest         `yaml:"ingest"`
	Lock       Lock           `yaml:"lock"`
	Schedule   Schedule       `yaml:"schedule"`
	Telegram   Telegram       `yaml:"telegram"`
	Metrics    Metrics        `yaml:"metrics"`
	Proxy      string         `yaml:"proxy"`
}

type DataSource struct {
	Provider     string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest synthetic"`
	BaseURL      string        `yaml:"base_url" validate:"required_if=Provider rest"`
	APIKey       string        `yaml:"api_key"`
	Period       string        `yaml:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y max"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" default:"30s" validate:"gt=0"`
	// Seed drives the synthetic provider.
	Seed uint64 `yaml:"seed" default:"42"`
}

type Store struct {
	Driver      string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres memory"`
	SQLitePath  string `yaml:"sqlite_path" default:"data/stocklens.db" validate:"required_if=Driver sqlite"`
	PostgresURL string `yaml:"postgres_url" validate:"required_if=Driver postgres"`
	MaxConns    int32  `yaml:"max_conns" default:"10" validate:"gte=1"`
}

type Ingest struct {
	Concurrency  int    `yaml:"concurrency" default:"4" validate:"gte=1,lte=32"`
	Week52Policy string `yaml:"week52_policy" default:"truncated" validate:"oneof=truncated strict"`
}

type Lock struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	TTL           time.Duration `yaml:"ttl" default:"2m" validate:"gt=0"`
}

type Schedule struct {
	// IngestCron has a leading seconds field.
	IngestCron string `yaml:"ingest_cron" default:"0 30 22 * * 1-5" validate:"required"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
}

// Enabled reports whether run reports should be sent.
func (t Telegram) Enabled() bool { return t.BotToken != "" }

type Metrics struct {
	Listen string `yaml:"listen" default:":9090"`
}

var validate = validator.New()

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Universe) == 0 {
		cfg.Universe = DefaultUniverse()
	}
	for i := range cfg.Universe {
		cfg.Universe[i].Ticker = strings.ToUpper(strings.TrimSpace(cfg.Universe[i].Ticker))
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"LOG_LEVEL":            &cfg.Log.Level,
		"LOG_FORMAT":           &cfg.Log.Format,
		"DATA_PROVIDER":        &cfg.DataSource.Provider,
		"DATA_SOURCE_BASE_URL": &cfg.DataSource.BaseURL,
		"DATA_SOURCE_API_KEY":  &cfg.DataSource.APIKey,
		"DATA_PERIOD":          &cfg.DataSource.Period,
		"STORE_DRIVER":         &cfg.Store.Driver,
		"SQLITE_PATH":          &cfg.Store.SQLitePath,
		"DATABASE_URL":         &cfg.Store.PostgresURL,
		"WEEK52_POLICY":        &cfg.Ingest.Week52Policy,
		"REDIS_ADDR":           &cfg.Lock.RedisAddr,
		"REDIS_PASSWORD":       &cfg.Lock.RedisPassword,
		"CRON_INGEST":          &cfg.Schedule.IngestCron,
		"TELEGRAM_BOT_TOKEN":   &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":     &cfg.Telegram.ChatID,
		"METRICS_LISTEN":       &cfg.Metrics.Listen,
		"HTTPS_PROXY":          &cfg.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("INGEST_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INGEST_CONCURRENCY: %w", err)
		}
		cfg.Ingest.Concurrency = n
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FETCH_TIMEOUT: %w", err)
		}
		cfg.DataSource.FetchTimeout = d
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		cfg.Schedule.RunOnStart = b
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Universe = universeFor(strings.Split(v, ","), cfg.Universe)
	}
	return nil
}

// universeFor keeps the descriptors of known tickers and adds bare entries
// for unknown ones.
func universeFor(tickers []string, known []model.Symbol) []model.Symbol {
	if len(known) == 0 {
		known = DefaultUniverse()
	}
	byTicker := make(map[string]model.Symbol, len(known))
	for _, s := range known {
		byTicker[strings.ToUpper(s.Ticker)] = s
	}
	var out []model.Symbol
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if s, ok := byTicker[t]; ok {
			out = append(out, s)
		} else {
			out = append(out, model.Symbol{Ticker: t, Name: t})
		}
	}
	return out
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Universe))
	for _, s := range c.Universe {
		if _, dup := seen[s.Ticker]; dup {
			return fmt.Errorf("invalid config: duplicate universe symbol %s", s.Ticker)
		}
		seen[s.Ticker] = struct{}{}
	}
	return nil
}

// DefaultUniverse is the tracked set when none is configured.
func DefaultUniverse() []model.Symbol {
	return []model.Symbol{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		{Ticker: "GOOGL", Name: "Alphabet Inc. (Google)", Sector: "Technology"},
		{Ticker: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
		{Ticker: "TSLA", Name: "Tesla Inc.", Sector: "Automotive"},
		{Ticker: "AMZN", Name: "Amazon.com Inc.", Sector: "E-commerce"},
		{Ticker: "META", Name: "Meta Platforms Inc. (Facebook)", Sector: "Technology"},
		{Ticker: "NFLX", Name: "Netflix Inc.", Sector: "Entertainment"},
		{Ticker: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology"},
		{Ticker: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial"},
		{Ticker: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare"},
	}
}
