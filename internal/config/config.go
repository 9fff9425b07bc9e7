package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Credential precedence order:
// 1. Vault (if configured) - highest priority
// 2. Config file values
// 3. Environment variables (SKILLSCOPE_AI_APIKEY, etc.)
// 4. Default values - lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Search        SearchConfig        `mapstructure:"search"`
	Passages      PassageStoreConfig  `mapstructure:"passages"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the structured-extraction service configuration.
type AIConfig struct {
	Provider       string               `mapstructure:"provider"`
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	Temperature    float32              `mapstructure:"temperature"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AnalysisConfig holds the skill-gap extractor knobs.
//
// FailurePolicy is the single switch between the two deployment semantics:
// "hard" surfaces a typed error on extraction/parse/validation failure,
// "soft" substitutes the deterministic fallback set. The two are never
// blended per failure kind.
type AnalysisConfig struct {
	FailurePolicy     string `mapstructure:"failurePolicy"`     // "hard" or "soft"
	EvidenceThreshold int    `mapstructure:"evidenceThreshold"` // chars below which augmentation kicks in
}

// SearchConfig holds the augmentation-search client configuration.
type SearchConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"baseURL"`
	APIKey     string        `mapstructure:"apiKey"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"maxResults"`
}

// PassageStoreConfig holds the read-only passage store connection.
type PassageStoreConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DatabaseURL string `mapstructure:"databaseURL"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// TLS via certificate files; both or neither must be set
	TLSCertFile string `mapstructure:"tlsCertFile"`
	TLSKeyFile  string `mapstructure:"tlsKeyFile"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	MaxRequestSize int64 `mapstructure:"maxRequestSize"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// Failure policy values for AnalysisConfig.FailurePolicy.
const (
	FailurePolicyHard = "hard"
	FailurePolicySoft = "soft"
)

// placeholderKeys are credential values that look configured but are not.
// A key on this list fails validation at startup instead of failing at the
// first extraction call.
var placeholderKeys = []string{
	"changeme",
	"change-me",
	"your-api-key",
	"your_api_key_here",
	"placeholder",
	"dummy",
	"xxx",
}

// viper instance retained for config watching after LoadConfig.
var loadedViper *viper.Viper

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SKILLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/skillscope/")
	v.AddConfigPath("$HOME/.skillscope")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loadedViper = v
	return &config, nil
}

// Validate checks if the configuration is valid. The extraction-service
// client requires a real credential up front: an empty or placeholder key is
// a construction-time error, not something discovered at the first call.
func (c *Config) Validate() error {
	if err := validateAPIKey("ai.apiKey", c.AI.APIKey, "SKILLSCOPE_AI_APIKEY"); err != nil {
		return err
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Analysis.FailurePolicy != FailurePolicyHard && c.Analysis.FailurePolicy != FailurePolicySoft {
		return fmt.Errorf("invalid analysis.failurePolicy: %q (must be %q or %q)",
			c.Analysis.FailurePolicy, FailurePolicyHard, FailurePolicySoft)
	}

	if c.Analysis.EvidenceThreshold <= 0 {
		return fmt.Errorf("analysis.evidenceThreshold must be positive")
	}

	if c.Search.Enabled {
		if c.Search.BaseURL == "" {
			return fmt.Errorf("search.baseURL is required when search is enabled")
		}
		if err := validateAPIKey("search.apiKey", c.Search.APIKey, "SKILLSCOPE_SEARCH_APIKEY"); err != nil {
			return err
		}
	}

	if c.Passages.Enabled && c.Passages.DatabaseURL == "" {
		return fmt.Errorf("passages.databaseURL is required when the passage store is enabled")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("server.tlsCertFile and server.tlsKeyFile must be set together")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// validateAPIKey rejects missing and placeholder credentials.
func validateAPIKey(name, key, envHint string) error {
	if key == "" {
		return fmt.Errorf("%s is required (set %s)", name, envHint)
	}
	if slices.Contains(placeholderKeys, strings.ToLower(strings.TrimSpace(key))) {
		return fmt.Errorf("%s is set to the placeholder value %q; provide a real credential", name, key)
	}
	return nil
}

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	// Legacy env var support
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Parse API keys from environment variable if not set in config
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("SKILLSCOPE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
			for i, key := range c.Server.APIKeys {
				c.Server.APIKeys[i] = strings.TrimSpace(key)
			}
		}
	}

	// Set dynamic service instance ID if not specified
	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}
