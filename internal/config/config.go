package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/legalform/internal/dataset"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/store"
	"github.com/sells-group/legalform/internal/train"
)

// Config holds the full application configuration.
type Config struct {
	Data    DataConfig       `yaml:"data" mapstructure:"data"`
	Store   store.Options    `yaml:"store" mapstructure:"store"`
	Train   TrainConfig      `yaml:"train" mapstructure:"train"`
	Eval    EvalConfig       `yaml:"eval" mapstructure:"eval"`
	Matcher elf.MatchOptions `yaml:"matcher" mapstructure:"matcher"`
	Detect  DetectConfig     `yaml:"detect" mapstructure:"detect"`
	Server  ServerConfig     `yaml:"server" mapstructure:"server"`
	Log     LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the reference code list and registry data.
type DataConfig struct {
	ReferenceFile string `yaml:"reference_file" mapstructure:"reference_file"`
	// RegistryFile is a golden copy CSV or CSV.zip. When empty the newest
	// golden copy in Dir is used.
	RegistryFile  string `yaml:"registry_file" mapstructure:"registry_file"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	GoldenCopyURL string `yaml:"golden_copy_url" mapstructure:"golden_copy_url"`
	// ReferenceURL, when set, is where download fetches the ELF code list
	// into ReferenceFile.
	ReferenceURL string `yaml:"reference_url" mapstructure:"reference_url"`
}

// TrainConfig configures model training.
type TrainConfig struct {
	TestFraction  float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	MinClassCount int     `yaml:"min_class_count" mapstructure:"min_class_count"`
	Seed          uint64  `yaml:"seed" mapstructure:"seed"`
	Alpha         float64 `yaml:"alpha" mapstructure:"alpha"`
}

// EvalConfig configures shuffle-split evaluation.
type EvalConfig struct {
	Splits       int     `yaml:"splits" mapstructure:"splits"`
	TestFraction float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	Seed         uint64  `yaml:"seed" mapstructure:"seed"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// DetectConfig configures the detection pipeline.
type DetectConfig struct {
	Top          int    `yaml:"top" mapstructure:"top"`
	RuleFallback bool   `yaml:"rule_fallback" mapstructure:"rule_fallback"`
	RemoteURL    string `yaml:"remote_url" mapstructure:"remote_url"`
	RemoteModel  string `yaml:"remote_model" mapstructure:"remote_model"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEGALFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.reference_file", "./data/elf-code-list.csv")
	v.SetDefault("data.registry_file", "")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.golden_copy_url", dataset.DefaultGoldenCopyURL)
	v.SetDefault("data.reference_url", "")
	v.SetDefault("store.driver", store.DriverDir)
	v.SetDefault("store.dir", "./models")
	v.SetDefault("store.database_url", "")
	v.SetDefault("train.test_fraction", 1.0/3.0)
	v.SetDefault("train.min_class_count", 2)
	v.SetDefault("train.seed", 42)
	v.SetDefault("train.alpha", 1.0)
	v.SetDefault("eval.splits", 10)
	v.SetDefault("eval.test_fraction", 0.3)
	v.SetDefault("eval.seed", 0)
	v.SetDefault("eval.concurrency", 4)
	v.SetDefault("matcher.lowercase", true)
	v.SetDefault("matcher.ends_with", true)
	v.SetDefault("detect.top", 3)
	v.SetDefault("detect.rule_fallback", true)
	v.SetDefault("detect.remote_url", "")
	v.SetDefault("detect.remote_model", "")
	v.SetDefault("server.port", 8080)
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

// TrainOptions converts the train and matcher sections.
func (c *Config) TrainOptions() train.Options {
	return train.Options{
		TestFraction:  c.Train.TestFraction,
		MinClassCount: c.Train.MinClassCount,
		Seed:          c.Train.Seed,
		Alpha:         c.Train.Alpha,
		Match:         c.Matcher,
	}
}

// EvalOptions converts the eval section.
func (c *Config) EvalOptions() train.EvalOptions {
	return train.EvalOptions{
		Splits:       c.Eval.Splits,
		TestFraction: c.Eval.TestFraction,
		Seed:         c.Eval.Seed,
		Concurrency:  c.Eval.Concurrency,
	}
}

// Validate checks the settings a command depends on. Mode is one of
// "train", "evaluate", "detect" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "train", "evaluate":
		if c.Data.ReferenceFile == "" {
			errs = append(errs, "data.reference_file is required")
		}
		if c.Data.RegistryFile == "" && c.Data.Dir == "" {
			errs = append(errs, "data.registry_file or data.dir is required")
		}
		if c.Train.TestFraction <= 0 || c.Train.TestFraction >= 1 {
			errs = append(errs, "train.test_fraction must be between 0 and 1")
		}
		if c.Train.MinClassCount < 1 {
			errs = append(errs, "train.min_class_count must be >= 1")
		}
		if c.Train.Alpha <= 0 {
			errs = append(errs, "train.alpha must be > 0")
		}
		if mode == "evaluate" {
			if c.Eval.Splits < 1 {
				errs = append(errs, "eval.splits must be >= 1")
			}
			if c.Eval.TestFraction <= 0 || c.Eval.TestFraction >= 1 {
				errs = append(errs, "eval.test_fraction must be between 0 and 1")
			}
			if c.Eval.Concurrency < 1 || c.Eval.Concurrency > 64 {
				errs = append(errs, "eval.concurrency must be between 1 and 64")
			}
		}
	case "detect", "serve":
		if c.Data.ReferenceFile == "" {
			errs = append(errs, "data.reference_file is required")
		}
		if c.Detect.Top < 1 {
			errs = append(errs, "detect.top must be >= 1")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "", store.DriverDir:
		if c.Store.Dir == "" {
			errs = append(errs, "store.dir is required for the dir driver")
		}
	case store.DriverSQLite, store.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the "+c.Store.Driver+" driver")
		}
	default:
		errs = append(errs, "store.driver must be one of dir, sqlite, postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
