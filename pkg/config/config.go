// Package config provides configuration loading and validation for the
// coderipple engine and its dispatch boundary.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers         = errors.New("dispatch workers must be positive")
	ErrInvalidAttempts        = errors.New("dispatch max attempts must be positive")
	ErrInvalidTimeout         = errors.New("dispatch invocation timeout must be positive")
	ErrInvalidConfidenceFloor = errors.New("confidence floor must be in [0, 1)")
	ErrInvalidBuckets         = errors.New("bucket boundaries must satisfy 0 < moderate_at < major_at <= 100")
	ErrMissingModel           = errors.New("generator model must be set")
)

// Config holds all configuration for coderipple.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics-specific configuration.
type MetricsConfig struct {
	Prometheus bool   `mapstructure:"prometheus"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// GeneratorConfig holds the generative-text collaborator settings. The API
// key is environment-only on purpose: it never belongs in a config file.
type GeneratorConfig struct {
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`
}

// DispatchConfig bounds specialist invocation.
type DispatchConfig struct {
	Workers           int           `mapstructure:"workers"`
	InvocationTimeout time.Duration `mapstructure:"invocation_timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// AnalysisConfig carries the tunable classification and scoring constants.
// The stock values are a policy default, not a contract; deployments may
// retune them without a rebuild.
type AnalysisConfig struct {
	ConfidenceFloor  float64 `mapstructure:"confidence_floor"`
	StructuralWeight float64 `mapstructure:"structural_weight"`

	PerFile       int `mapstructure:"per_file"`
	FilesCap      int `mapstructure:"files_cap"`
	PerSymbol     int `mapstructure:"per_symbol"`
	SymbolsCap    int `mapstructure:"symbols_cap"`
	ModifiedBonus int `mapstructure:"modified_bonus"`
	BreakingFloor int `mapstructure:"breaking_floor"`
	ModerateAt    int `mapstructure:"moderate_at"`
	MajorAt       int `mapstructure:"major_at"`
}

// RuleSet materializes the classifier rule set with the configured knobs
// over the stock rules.
func (a AnalysisConfig) RuleSet() classify.RuleSet {
	rules := classify.DefaultRuleSet()
	rules.ConfidenceFloor = a.ConfidenceFloor
	rules.StructuralWeight = a.StructuralWeight

	return rules
}

// Policy materializes the significance policy from the configured constants.
func (a AnalysisConfig) Policy() significance.Policy {
	return significance.Policy{
		FilesCap:      a.FilesCap,
		PerFile:       a.PerFile,
		SymbolsCap:    a.SymbolsCap,
		PerSymbol:     a.PerSymbol,
		ModifiedBonus: a.ModifiedBonus,
		BreakingFloor: a.BreakingFloor,
		ModerateAt:    a.ModerateAt,
		MajorAt:       a.MajorAt,
	}
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/coderipple")
	}

	viperCfg.SetEnvPrefix("CODERIPPLE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded values against the sentinel errors.
func (c *Config) Validate() error {
	if c.Dispatch.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.Dispatch.MaxAttempts <= 0 {
		return ErrInvalidAttempts
	}

	if c.Dispatch.InvocationTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Analysis.ConfidenceFloor < 0 || c.Analysis.ConfidenceFloor >= 1 {
		return ErrInvalidConfidenceFloor
	}

	if c.Analysis.ModerateAt <= 0 || c.Analysis.MajorAt <= c.Analysis.ModerateAt || c.Analysis.MajorAt > 100 {
		return ErrInvalidBuckets
	}

	if c.Generator.Model == "" {
		return ErrMissingModel
	}

	return nil
}
