package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type BigQueryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Project string        `mapstructure:"project"`
	Dataset string        `mapstructure:"dataset"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	CronEnabled  bool          `mapstructure:"cron_enabled"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	RunOnStartup bool          `mapstructure:"run_on_startup"`
}

type RulesConfig struct {
	Whale     WhaleConfig     `mapstructure:"whale"`
	DEXUser   DEXUserConfig   `mapstructure:"dex_user"`
	NFTTrader NFTTraderConfig `mapstructure:"nft_trader"`
	NewWallet NewWalletConfig `mapstructure:"new_wallet"`
}

type WhaleConfig struct {
	MinBalanceETH float64 `mapstructure:"min_balance_eth"`
}

type DEXUserConfig struct {
	MinInteractions int `mapstructure:"min_interactions"`
}

type NFTTraderConfig struct {
	RatioThreshold float64 `mapstructure:"ratio_threshold"`
	MinActivity    int     `mapstructure:"min_activity"`
}

type NewWalletConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APOLLO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("bigquery.base_url", "https://bigquery.googleapis.com/bigquery/v2")
	v.SetDefault("bigquery.dataset", "apollo_labels")
	v.SetDefault("bigquery.timeout", "60s")
	v.SetDefault("pipeline.cron_enabled", false)
	v.SetDefault("pipeline.scan_interval", "6h")
	v.SetDefault("pipeline.run_on_startup", true)
	v.SetDefault("rules.whale.min_balance_eth", 1000.0)
	v.SetDefault("rules.dex_user.min_interactions", 5)
	v.SetDefault("rules.nft_trader.ratio_threshold", 0.7)
	v.SetDefault("rules.nft_trader.min_activity", 10)
	v.SetDefault("rules.new_wallet.lookback_days", 30)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Rules.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects rule parameters that are configuration mistakes rather
// than runtime data conditions. These always fail fast.
func (r RulesConfig) Validate() error {
	if r.Whale.MinBalanceETH <= 0 {
		return fmt.Errorf("rules.whale.min_balance_eth must be positive, got %v", r.Whale.MinBalanceETH)
	}
	if r.DEXUser.MinInteractions < 1 {
		return fmt.Errorf("rules.dex_user.min_interactions must be at least 1, got %d", r.DEXUser.MinInteractions)
	}
	if r.NFTTrader.RatioThreshold < 0 || r.NFTTrader.RatioThreshold > 1 {
		return fmt.Errorf("rules.nft_trader.ratio_threshold must be in [0,1], got %v", r.NFTTrader.RatioThreshold)
	}
	if r.NFTTrader.MinActivity < 1 {
		return fmt.Errorf("rules.nft_trader.min_activity must be at least 1, got %d", r.NFTTrader.MinActivity)
	}
	if r.NewWallet.LookbackDays <= 0 {
		return fmt.Errorf("rules.new_wallet.lookback_days must be positive, got %d", r.NewWallet.LookbackDays)
	}
	return nil
}
