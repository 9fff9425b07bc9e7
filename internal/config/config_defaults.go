package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "120s")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.1)

	// Circuit breaker defaults
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", "60s")
	v.SetDefault("ai.circuitBreaker.timeout", "30s")
	v.SetDefault("ai.circuitBreaker.minRequests", 5)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Analysis defaults
	v.SetDefault("analysis.failurePolicy", FailurePolicyHard)
	v.SetDefault("analysis.evidenceThreshold", 2000)

	// Search defaults
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.maxResults", 5)

	// Passage store defaults
	v.SetDefault("passages.enabled", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "360s")
	v.SetDefault("server.writeTimeout", "360s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.maxRequestSize", 1048576) // 1MB

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", true)

	// App defaults
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Vault defaults
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mountPath", "secret")
	v.SetDefault("vault.timeout", "10s")
	v.SetDefault("vault.retryAttempts", 3)
	v.SetDefault("vault.secrets.aiKeyPath", "skillscope/ai")
	v.SetDefault("vault.secrets.aiKeyField", "api_key")
	v.SetDefault("vault.secrets.searchKeyPath", "skillscope/search")
	v.SetDefault("vault.secrets.searchKeyField", "api_key")

	// Observability defaults
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "skillscope")
	v.SetDefault("observability.serviceVersion", "1.0.0")
	v.SetDefault("observability.consoleOutput", false)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 30*time.Second)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
}
