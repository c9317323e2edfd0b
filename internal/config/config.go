package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Chain struct {
		RPCEndpoints      []string `yaml:"rpc_endpoints"`
		WSEndpoints       []string `yaml:"ws_endpoints"`
		MerchantAddress   string   `yaml:"merchant_address"`
		FailoverThreshold int      `yaml:"failover_threshold"`
		ConfirmTimeoutSec int      `yaml:"confirm_timeout_seconds"`
	} `yaml:"chain"`
	Pricing struct {
		FeedURL        string `yaml:"feed_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"pricing"`
	Orders struct {
		ReconcileAfterMinutes int `yaml:"reconcile_after_minutes"`
	} `yaml:"orders"`
	Worker struct {
		IntervalSeconds int64 `yaml:"interval_seconds"`
	} `yaml:"worker"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if len(cfg.Chain.RPCEndpoints) == 0 || cfg.Chain.MerchantAddress == "" {
		return nil, errors.New("chain config is incomplete")
	}
	if cfg.Pricing.FeedURL == "" {
		return nil, errors.New("pricing.feed_url is required")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("RPC_ENDPOINTS"); v != "" {
		cfg.Chain.RPCEndpoints = splitCommaList(v)
	}
	if v := os.Getenv("WS_ENDPOINTS"); v != "" {
		cfg.Chain.WSEndpoints = splitCommaList(v)
	}
	if v := os.Getenv("MERCHANT_ADDRESS"); v != "" {
		cfg.Chain.MerchantAddress = v
	}
	if v := os.Getenv("CHAIN_FAILOVER_THRESHOLD"); v != "" {
		cfg.Chain.FailoverThreshold = atoiOr(cfg.Chain.FailoverThreshold, v)
	}
	if v := os.Getenv("CHAIN_CONFIRM_TIMEOUT_SECONDS"); v != "" {
		cfg.Chain.ConfirmTimeoutSec = atoiOr(cfg.Chain.ConfirmTimeoutSec, v)
	}
	if v := os.Getenv("PRICE_FEED_URL"); v != "" {
		cfg.Pricing.FeedURL = v
	}
	if v := os.Getenv("PRICE_FEED_TIMEOUT_SECONDS"); v != "" {
		cfg.Pricing.TimeoutSeconds = atoiOr(cfg.Pricing.TimeoutSeconds, v)
	}
	if v := os.Getenv("ORDER_RECONCILE_AFTER_MINUTES"); v != "" {
		cfg.Orders.ReconcileAfterMinutes = atoiOr(cfg.Orders.ReconcileAfterMinutes, v)
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
