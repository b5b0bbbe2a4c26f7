package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendChromedp = "chromedp"
	BackendStatic   = "static"
)

// MaxStoresLimit bounds how many map results one scan may visit.
const MaxStoresLimit = 10

type Config struct {
	Browser BrowserConfig `mapstructure:"browser"`
	Search  SearchConfig  `mapstructure:"search"`
	Delays  DelayConfig   `mapstructure:"delays"`
	Output  OutputConfig  `mapstructure:"output"`
}

// BrowserConfig controls the automation session.
type BrowserConfig struct {
	Backend           string        `mapstructure:"backend"` // "chromedp" or "static"
	Headless          bool          `mapstructure:"headless"`
	UserAgent         string        `mapstructure:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout"`
}

// SearchConfig controls the map search stage.
type SearchConfig struct {
	MapsURL        string        `mapstructure:"maps_url"`
	MaxStores      int           `mapstructure:"max_stores"`
	ResultsTimeout time.Duration `mapstructure:"results_timeout"`
}

// DelayConfig holds the fixed settle delays used between page transitions.
type DelayConfig struct {
	MapsSettle          time.Duration `mapstructure:"maps_settle"`
	FeedSettle          time.Duration `mapstructure:"feed_settle"`
	DetailSettle        time.Duration `mapstructure:"detail_settle"`
	PageSettle          time.Duration `mapstructure:"page_settle"`
	SearchSettle        time.Duration `mapstructure:"search_settle"`
	BetweenStores       time.Duration `mapstructure:"between_stores"`
	BetweenStoresJitter time.Duration `mapstructure:"between_stores_jitter"`
}

type OutputConfig struct {
	CSVPath string `mapstructure:"csv_path"` // empty disables the export
	Verbose bool   `mapstructure:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Backend:           BackendChromedp,
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			ActionTimeout:     10 * time.Second,
		},
		Search: SearchConfig{
			MapsURL:        "https://www.google.com/maps/search/",
			MaxStores:      MaxStoresLimit,
			ResultsTimeout: 10 * time.Second,
		},
		Delays: DelayConfig{
			MapsSettle:    3 * time.Second,
			FeedSettle:    2 * time.Second,
			DetailSettle:  2 * time.Second,
			PageSettle:    2 * time.Second,
			SearchSettle:  2 * time.Second,
			BetweenStores: 1 * time.Second,
		},
		Output: OutputConfig{},
	}
}

// Load reads arkham.yaml (optional) and ARKHAM_* environment variables on
// top of DefaultConfig. Nested keys map to env vars with "_", e.g.
// ARKHAM_SEARCH_MAX_STORES.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("arkham")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("ARKHAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("browser.backend", d.Browser.Backend)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)
	v.SetDefault("browser.action_timeout", d.Browser.ActionTimeout)

	v.SetDefault("search.maps_url", d.Search.MapsURL)
	v.SetDefault("search.max_stores", d.Search.MaxStores)
	v.SetDefault("search.results_timeout", d.Search.ResultsTimeout)

	v.SetDefault("delays.maps_settle", d.Delays.MapsSettle)
	v.SetDefault("delays.feed_settle", d.Delays.FeedSettle)
	v.SetDefault("delays.detail_settle", d.Delays.DetailSettle)
	v.SetDefault("delays.page_settle", d.Delays.PageSettle)
	v.SetDefault("delays.search_settle", d.Delays.SearchSettle)
	v.SetDefault("delays.between_stores", d.Delays.BetweenStores)
	v.SetDefault("delays.between_stores_jitter", d.Delays.BetweenStoresJitter)

	v.SetDefault("output.csv_path", d.Output.CSVPath)
	v.SetDefault("output.verbose", d.Output.Verbose)
}

func validate(cfg *Config) error {
	cfg.Browser.Backend = strings.ToLower(strings.TrimSpace(cfg.Browser.Backend))
	if cfg.Browser.Backend != BackendChromedp && cfg.Browser.Backend != BackendStatic {
		return fmt.Errorf("browser backend must be '%s' or '%s', got: %s", BackendChromedp, BackendStatic, cfg.Browser.Backend)
	}

	if cfg.Search.MaxStores < 1 || cfg.Search.MaxStores > MaxStoresLimit {
		return fmt.Errorf("search max_stores must be between 1 and %d, got: %d", MaxStoresLimit, cfg.Search.MaxStores)
	}

	if strings.TrimSpace(cfg.Search.MapsURL) == "" {
		return fmt.Errorf("search maps_url is required")
	}

	durations := map[string]time.Duration{
		"browser.navigation_timeout":   cfg.Browser.NavigationTimeout,
		"browser.action_timeout":       cfg.Browser.ActionTimeout,
		"search.results_timeout":       cfg.Search.ResultsTimeout,
		"delays.maps_settle":           cfg.Delays.MapsSettle,
		"delays.feed_settle":           cfg.Delays.FeedSettle,
		"delays.detail_settle":         cfg.Delays.DetailSettle,
		"delays.page_settle":           cfg.Delays.PageSettle,
		"delays.search_settle":         cfg.Delays.SearchSettle,
		"delays.between_stores":        cfg.Delays.BetweenStores,
		"delays.between_stores_jitter": cfg.Delays.BetweenStoresJitter,
	}
	for key, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got: %s", key, d)
		}
	}

	return nil
}
