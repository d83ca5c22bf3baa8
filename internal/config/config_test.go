package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("app.env=%q", cfg.App.Env)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("server.http_addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.DB.Timezone != "UTC" || cfg.DB.MaxOpenConns != 20 {
		t.Fatalf("db defaults=%+v", cfg.DB)
	}
	if cfg.BigQuery.Timeout != 60*time.Second {
		t.Fatalf("bigquery.timeout=%v", cfg.BigQuery.Timeout)
	}
	if cfg.Pipeline.ScanInterval != 6*time.Hour || !cfg.Pipeline.RunOnStartup {
		t.Fatalf("pipeline defaults=%+v", cfg.Pipeline)
	}
	if cfg.Rules.Whale.MinBalanceETH != 1000.0 {
		t.Fatalf("whale.min_balance_eth=%v", cfg.Rules.Whale.MinBalanceETH)
	}
	if cfg.Rules.DEXUser.MinInteractions != 5 {
		t.Fatalf("dex_user.min_interactions=%d", cfg.Rules.DEXUser.MinInteractions)
	}
	if cfg.Rules.NFTTrader.RatioThreshold != 0.7 || cfg.Rules.NFTTrader.MinActivity != 10 {
		t.Fatalf("nft_trader=%+v", cfg.Rules.NFTTrader)
	}
	if cfg.Rules.NewWallet.LookbackDays != 30 {
		t.Fatalf("new_wallet.lookback_days=%d", cfg.Rules.NewWallet.LookbackDays)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APOLLO_RULES_WHALE_MIN_BALANCE_ETH", "2500")
	t.Setenv("APOLLO_SERVER_HTTP_ADDR", ":9090")

	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Rules.Whale.MinBalanceETH != 2500 {
		t.Fatalf("whale.min_balance_eth=%v", cfg.Rules.Whale.MinBalanceETH)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("server.http_addr=%q", cfg.Server.HTTPAddr)
	}
}

func TestRulesValidate(t *testing.T) {
	valid := RulesConfig{
		Whale:     WhaleConfig{MinBalanceETH: 1000},
		DEXUser:   DEXUserConfig{MinInteractions: 5},
		NFTTrader: NFTTraderConfig{RatioThreshold: 0.7, MinActivity: 10},
		NewWallet: NewWalletConfig{LookbackDays: 30},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*RulesConfig)
		wantSub string
	}{
		{"zero whale balance", func(r *RulesConfig) { r.Whale.MinBalanceETH = 0 }, "min_balance_eth"},
		{"negative whale balance", func(r *RulesConfig) { r.Whale.MinBalanceETH = -1 }, "min_balance_eth"},
		{"zero dex interactions", func(r *RulesConfig) { r.DEXUser.MinInteractions = 0 }, "min_interactions"},
		{"ratio above one", func(r *RulesConfig) { r.NFTTrader.RatioThreshold = 1.1 }, "ratio_threshold"},
		{"negative ratio", func(r *RulesConfig) { r.NFTTrader.RatioThreshold = -0.1 }, "ratio_threshold"},
		{"zero nft activity", func(r *RulesConfig) { r.NFTTrader.MinActivity = 0 }, "min_activity"},
		{"zero lookback", func(r *RulesConfig) { r.NewWallet.LookbackDays = 0 }, "lookback_days"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("err=%v want substring %q", err, tc.wantSub)
			}
		})
	}
}
