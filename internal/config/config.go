package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridsignal/loraplan/internal/planner"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Plan   PlanConfig   `yaml:"plan" mapstructure:"plan"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PlanConfig holds the planning pipeline knobs.
type PlanConfig struct {
	GatewayThresholdKm float64 `yaml:"gateway_threshold_km" mapstructure:"gateway_threshold_km"`
	NodeThresholdKm    float64 `yaml:"node_threshold_km" mapstructure:"node_threshold_km"`
	MaxChildren        int     `yaml:"max_children" mapstructure:"max_children"`
	GatewayMaxChildren int     `yaml:"gateway_max_children" mapstructure:"gateway_max_children"`
	FreqPoolMin        int     `yaml:"freq_pool_min" mapstructure:"freq_pool_min"`
	FreqPoolMax        int     `yaml:"freq_pool_max" mapstructure:"freq_pool_max"`
	GatewayDownlink    int     `yaml:"gateway_downlink" mapstructure:"gateway_downlink"`
	OnExhaustion       string  `yaml:"on_exhaustion" mapstructure:"on_exhaustion"`
}

// Planner converts the file/env representation into planner.Config.
func (p PlanConfig) Planner() planner.Config {
	policy := planner.ExhaustFail
	if p.OnExhaustion == string(planner.ExhaustSkip) {
		policy = planner.ExhaustSkip
	}
	return planner.Config{
		GatewayThresholdKm: p.GatewayThresholdKm,
		NodeThresholdKm:    p.NodeThresholdKm,
		MaxChildren:        p.MaxChildren,
		GatewayMaxChildren: p.GatewayMaxChildren,
		FreqPoolMin:        p.FreqPoolMin,
		FreqPoolMax:        p.FreqPoolMax,
		GatewayDownlink:    p.GatewayDownlink,
		OnExhaustion:       policy,
	}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RatePerSec  float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// FetchConfig configures remote site-list downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from loraplan.yaml (working directory or
// ~/.config/loraplan), applies LORAPLAN_* environment overrides, and
// fills defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("loraplan")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/loraplan")

	// Environment
	v.SetEnvPrefix("LORAPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "loraplan.db")
	v.SetDefault("plan.gateway_threshold_km", 5)
	v.SetDefault("plan.node_threshold_km", 5)
	v.SetDefault("plan.max_children", 4)
	v.SetDefault("plan.gateway_max_children", 0)
	v.SetDefault("plan.freq_pool_min", 16)
	v.SetDefault("plan.freq_pool_max", 30)
	v.SetDefault("plan.gateway_downlink", 3)
	v.SetDefault("plan.on_exhaustion", "fail")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_sec", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("fetch.user_agent", "loraplan/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
