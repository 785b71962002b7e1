package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "STOREFRONT"
	configFileEnvName = envPrefix + "_CONFIG_FILE"
)

type api struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
}

type storage struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type catalog struct {
	DefaultPriceCeiling decimal.Decimal `mapstructure:"default_price_ceiling"`
}

type badge struct {
	FocusInterval time.Duration `mapstructure:"focus_interval"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type topics struct {
	SearchEvents string `mapstructure:"search_events"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	SearchEventsTopN   int       `mapstructure:"search_events_top_n"`
	TailGroup          string    `mapstructure:"tail_group"`
}

type Config struct {
	LogLevel slog.Level `mapstructure:"log_level"`
	Locale   string     `mapstructure:"locale"`
	API      api        `mapstructure:"api"`
	Storage  storage    `mapstructure:"storage"`
	Catalog  catalog    `mapstructure:"catalog"`
	Badge    badge      `mapstructure:"badge"`
	Broker   broker     `mapstructure:"broker"`
}

// AnalyticsEnabled reports whether search events have somewhere to go.
func (c Config) AnalyticsEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0 && c.Broker.Topics.SearchEvents != ""
}

// TLSEnabled reports whether broker connections use TLS.
func (c Config) TLSEnabled() bool {
	return c.Broker.TLS.CA != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("locale", "pt-BR")

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.request_timeout", "10s")
	v.SetDefault("api.retry_attempts", 3)

	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.watch", true)

	v.SetDefault("catalog.default_price_ceiling", "5000")

	v.SetDefault("badge.focus_interval", "30s")

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.topics.search_events", "storefront-search-events")
	v.SetDefault("broker.search_events_top_n", 5)
	v.SetDefault("broker.tail_group", "storefront-events-tail")
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storefront", "storefront.db")
}

// Load reads the config file at path, or the one named by
// STOREFRONT_CONFIG_FILE when path is empty. Without either only defaults
// and STOREFRONT_* environment variables apply.
func Load(path string) (Config, error) {
	const op = "config.Load"

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(configFileEnvName)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.API.BaseURL == "":
		return errors.New("api.base_url: required")
	case c.API.RequestTimeout <= 0:
		return errors.New("api.request_timeout: must be positive")
	case c.API.RetryAttempts < 1:
		return errors.New("api.retry_attempts: must be at least 1")
	case c.Storage.Path == "":
		return errors.New("storage.path: required")
	case c.Badge.FocusInterval <= 0:
		return errors.New("badge.focus_interval: must be positive")
	case c.Broker.SearchEventsTopN < 1:
		return errors.New("broker.search_events_top_n: must be at least 1")
	case (c.Broker.TLS.Cert == "") != (c.Broker.TLS.Key == ""):
		return errors.New("broker.tls: cert and key must be set together")
	case c.Broker.TLS.Cert != "" && !c.TLSEnabled():
		return errors.New("broker.tls: ca is required with a client certificate")
	}
	return nil
}

func (c Config) Print(w io.Writer) {
	tamplate := `
	General:
	LogLevel=%q
	Locale=%q

	API:
	BaseURL=%q
	RequestTimeout=%q
	RetryAttempts=%d

	Storage:
	Path=%q
	Watch=%t

	Catalog:
	DefaultPriceCeiling=%q

	Badge:
	FocusInterval=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		SearchEvents=%q
	SearchEventsTopN=%d
	TailGroup=%q

`
	fmt.Fprintln(w, "Loaded config:")
	fmt.Fprintf(w,
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.Locale,
		c.API.BaseURL,
		c.API.RequestTimeout,
		c.API.RetryAttempts,
		c.Storage.Path,
		c.Storage.Watch,
		c.Catalog.DefaultPriceCeiling,
		c.Badge.FocusInterval,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.TLSEnabled(),
		c.Broker.Topics.SearchEvents,
		c.Broker.SearchEventsTopN,
		c.Broker.TailGroup,
	)
}

