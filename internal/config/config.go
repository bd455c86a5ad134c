package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Input    InputConfig    `mapstructure:"input"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	Output   OutputConfig   `mapstructure:"output"`
	History  HistoryConfig  `mapstructure:"history"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type InputConfig struct {
	StoresCSV string `mapstructure:"stores_csv"`
	DCCSV     string `mapstructure:"dc_csv"`
}

type ProbeConfig struct {
	TimeoutMS         int  `mapstructure:"timeout_ms"`
	MaxWorkers        int  `mapstructure:"max_workers"`
	RetryPings        int  `mapstructure:"retry_pings"`
	GatewayCheck      bool `mapstructure:"gateway_check"`
	ProgressEvery     int  `mapstructure:"progress_every"`
	GWProgressEvery   int  `mapstructure:"gw_progress_every"`
	GatewayMaxWorkers int  `mapstructure:"gateway_max_workers"`
}

func (p *ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	PublishDir string `mapstructure:"publish_dir"`
	PerRun     bool   `mapstructure:"per_run"`
	WriteCSV   bool   `mapstructure:"write_csv"`
	WriteTxt   bool   `mapstructure:"write_txt"`
}

type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	Channel  string `mapstructure:"channel"`
}

func (r *RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// GetRedisOptions returns client options for the live-feed publisher.
func (r *RedisConfig) GetRedisOptions() *redis.Options {
	return &redis.Options{
		Addr:            r.Addr,
		Password:        r.Password,
		DB:              r.DB,
		DisableIdentity: true,
	}
}

type AlertsConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	MaxItems   int           `mapstructure:"max_items"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("sitescan")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("config file not found, using defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "sitescan")
	viper.SetDefault("app.version", "dev")

	viper.SetDefault("input.stores_csv", "stores.csv")
	viper.SetDefault("input.dc_csv", "DC_LIST.csv")

	viper.SetDefault("probe.timeout_ms", 1000)
	viper.SetDefault("probe.max_workers", 200)
	viper.SetDefault("probe.retry_pings", 3)
	viper.SetDefault("probe.gateway_check", false)
	viper.SetDefault("probe.progress_every", 250)
	viper.SetDefault("probe.gw_progress_every", 200)
	viper.SetDefault("probe.gateway_max_workers", 100)

	viper.SetDefault("output.dir", "logs")
	viper.SetDefault("output.publish_dir", "")
	viper.SetDefault("output.per_run", true)
	viper.SetDefault("output.write_csv", false)
	viper.SetDefault("output.write_txt", false)

	viper.SetDefault("history.driver", "sqlite3")
	viper.SetDefault("history.path", "logs/history.db")
	viper.SetDefault("history.dsn", "")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key", "sitescan:latest")
	viper.SetDefault("redis.channel", "sitescan:updates")

	viper.SetDefault("alerts.webhook_url", "")
	viper.SetDefault("alerts.max_items", 20)
	viper.SetDefault("alerts.timeout", "10s")

	viper.SetDefault("schedule.interval", "0s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

func validateConfig(cfg *Config) error {
	if cfg.Input.StoresCSV == "" {
		return errors.New("input stores_csv is required")
	}

	if cfg.Probe.TimeoutMS <= 0 {
		return fmt.Errorf("invalid probe timeout %dms", cfg.Probe.TimeoutMS)
	}

	if cfg.Probe.MaxWorkers < 1 {
		return fmt.Errorf("invalid probe max_workers %d", cfg.Probe.MaxWorkers)
	}

	if cfg.Probe.RetryPings < 1 {
		return fmt.Errorf("invalid probe retry_pings %d", cfg.Probe.RetryPings)
	}

	if cfg.Output.Dir == "" {
		return errors.New("output dir is required")
	}

	switch cfg.History.Driver {
	case "", "none":
	case "sqlite3":
		if cfg.History.Path == "" {
			return errors.New("history path is required for sqlite3")
		}
	case "pgx":
		if cfg.History.DSN == "" {
			return errors.New("history dsn is required for pgx")
		}
	default:
		return fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}

	if cfg.Alerts.MaxItems < 1 {
		return fmt.Errorf("invalid alerts max_items %d", cfg.Alerts.MaxItems)
	}

	if cfg.Schedule.Interval < 0 {
		return fmt.Errorf("invalid schedule interval %s", cfg.Schedule.Interval)
	}

	return nil
}
