package config

import "strings"

// Config is the full runtime configuration.
type Config struct {
	App      AppConfig      `toml:"app"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Advisory AdvisoryConfig `toml:"advisory"`
	Batch    BatchConfig    `toml:"batch"`
	Sources  SourcesConfig  `toml:"sources"`
	Store    StoreConfig    `toml:"store"`
	Notify   NotifyConfig   `toml:"notify"`
	Report   ReportConfig   `toml:"report"`
	Scan     ScanConfig     `toml:"scan"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// ScoringConfig feeds the aggregator and the profile loader.
type ScoringConfig struct {
	ProfilesPath            string  `toml:"profiles_path"`
	TimeoutPerSourceSeconds int     `toml:"timeout_per_source_seconds"`
	MinDataQuality          float64 `toml:"min_data_quality"`
}

// AdvisoryConfig describes the optional second-opinion model endpoint.
type AdvisoryConfig struct {
	Enabled        bool   `toml:"enabled"`
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type BatchConfig struct {
	MaxConcurrency   int     `toml:"max_concurrency"`
	BatchSize        int     `toml:"batch_size"`
	BudgetSeconds    int     `toml:"budget_seconds"`
	RateLimitInitial float64 `toml:"rate_limit_initial"`
	RateLimitMin     float64 `toml:"rate_limit_min"`
	RateLimitMax     float64 `toml:"rate_limit_max"`
}

type SourcesConfig struct {
	HTTP      []HTTPSourceConfig   `toml:"http"`
	Static    []StaticSourceConfig `toml:"static"`
	Binance   BinanceSourceConfig  `toml:"binance"`
	FearGreed FearGreedConfig      `toml:"fear_greed"`
	Breaker   BreakerConfig        `toml:"breaker"`
}

// HTTPSourceConfig declares one generic JSON endpoint source. URL may contain
// a {subject} placeholder; the value at value_path maps linearly from
// [min,max] onto 0..100.
type HTTPSourceConfig struct {
	ID        string  `toml:"id"`
	URL       string  `toml:"url"`
	ValuePath string  `toml:"value_path"`
	Min       float64 `toml:"min"`
	Max       float64 `toml:"max"`
}

type StaticSourceConfig struct {
	ID    string  `toml:"id"`
	Value float64 `toml:"value"`
}

type BinanceSourceConfig struct {
	Enabled  bool `toml:"enabled"`
	Momentum bool `toml:"momentum"`
	Funding  bool `toml:"funding"`
}

type FearGreedConfig struct {
	Enabled bool `toml:"enabled"`
}

// BreakerConfig tunes the per-source circuit breaker.
type BreakerConfig struct {
	Threshold       int `toml:"threshold"`
	CooldownSeconds int `toml:"cooldown_seconds"`
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type ReportConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// ScanConfig drives the periodic universe scan.
type ScanConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval string   `toml:"interval"`
	Universe []string `toml:"universe"`
	Profile  string   `toml:"profile"`
}

// keySet tracks which config paths the user set explicitly, so defaults
// never override a deliberate zero.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault describes one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
