package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Prediction PredictionConfig `yaml:"prediction" mapstructure:"prediction"`
	CORS       CORSConfig       `yaml:"cors" mapstructure:"cors"`
	UI         UIConfig         `yaml:"ui" mapstructure:"ui"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port             int `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// PredictionConfig configures the external prediction service.
type PredictionConfig struct {
	ClinicianEndpoint string  `yaml:"clinician_endpoint" mapstructure:"clinician_endpoint"`
	PatientEndpoint   string  `yaml:"patient_endpoint" mapstructure:"patient_endpoint"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit         float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	ValidateRequests  bool    `yaml:"validate_requests" mapstructure:"validate_requests"`
}

// Timeout returns TimeoutSecs as a duration.
func (p PredictionConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// CORSConfig configures cross-origin access to the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// UIConfig configures the HTML front end.
type UIConfig struct {
	ThemeVariant string `yaml:"theme_variant" mapstructure:"theme_variant"`
	TemplatesDir string `yaml:"templates_dir" mapstructure:"templates_dir"`
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
	v.SetEnvPrefix("RISKINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 60)
	v.SetDefault("prediction.clinician_endpoint", "http://localhost:8000/predict/")
	v.SetDefault("prediction.patient_endpoint", "http://localhost:8000/predict_cardiovascular/")
	v.SetDefault("prediction.timeout_secs", 30)
	v.SetDefault("prediction.rate_limit", 0)
	v.SetDefault("prediction.burst", 1)
	v.SetDefault("prediction.validate_requests", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("ui.theme_variant", "dark")
	v.SetDefault("ui.templates_dir", "")
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

// Validate checks the settings a command mode depends on. Modes are
// "serve", "intake" and "fields".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.UI.ThemeVariant != "dark" && c.UI.ThemeVariant != "light" {
			problems = append(problems, "ui.theme_variant must be dark or light")
		}
		problems = append(problems, c.predictionProblems()...)
	case "intake":
		problems = append(problems, c.predictionProblems()...)
	case "fields":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) predictionProblems() []string {
	var problems []string
	for key, raw := range map[string]string{
		"prediction.clinician_endpoint": c.Prediction.ClinicianEndpoint,
		"prediction.patient_endpoint":   c.Prediction.PatientEndpoint,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, key+" must be an absolute http(s) URL")
		}
	}
	if c.Prediction.TimeoutSecs <= 0 {
		problems = append(problems, "prediction.timeout_secs must be > 0")
	}
	if c.Prediction.RateLimit < 0 {
		problems = append(problems, "prediction.rate_limit must be >= 0")
	}
	if c.Prediction.RateLimit > 0 && c.Prediction.Burst < 1 {
		problems = append(problems, "prediction.burst must be >= 1 when rate limiting")
	}
	return problems
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
