package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"skillscope/internal/errors"
)

func validConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			APIKey:   "test-key-123",
			Timeout:  120 * time.Second,
		},
		Analysis: AnalysisConfig{
			FailurePolicy:     FailurePolicyHard,
			EvidenceThreshold: 2000,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.AI.APIKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for missing API key")
	}
	if !strings.Contains(err.Error(), "SKILLSCOPE_AI_APIKEY") {
		t.Errorf("error %q should mention the env var to set", err)
	}
}

func TestValidateRejectsPlaceholderAPIKey(t *testing.T) {
	for _, key := range []string{"changeme", "CHANGEME", "your-api-key", " placeholder "} {
		cfg := validConfig()
		cfg.AI.APIKey = key
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted placeholder key %q", key)
		}
	}
}

func TestValidateFailurePolicy(t *testing.T) {
	tests := []struct {
		policy  string
		wantErr bool
	}{
		{FailurePolicyHard, false},
		{FailurePolicySoft, false},
		{"Hard", true},
		{"lenient", true},
		{"", true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Analysis.FailurePolicy = tt.policy
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate() with policy %q: err = %v, wantErr = %v", tt.policy, err, tt.wantErr)
		}
	}
}

func TestValidateRejectsNonPositiveThreshold(t *testing.T) {
	for _, threshold := range []int{0, -1} {
		cfg := validConfig()
		cfg.Analysis.EvidenceThreshold = threshold
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() accepted evidenceThreshold %d", threshold)
		}
	}
}

func TestValidateSearchRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted enabled search without baseURL")
	}

	cfg.Search.BaseURL = "https://search.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted enabled search without API key")
	}

	cfg.Search.APIKey = "search-key-123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with complete search config", err)
	}
}

func TestValidateTLSFilesPaired(t *testing.T) {
	cfg := validConfig()
	cfg.Server.TLSCertFile = "/etc/skillscope/tls.crt"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted cert file without key file")
	}

	cfg.Server.TLSKeyFile = "/etc/skillscope/tls.key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil with both TLS files set", err)
	}
}

func TestAnalysisSettingsUpdate(t *testing.T) {
	settings := NewAnalysisSettings(&AnalysisConfig{
		FailurePolicy:     FailurePolicyHard,
		EvidenceThreshold: 2000,
	})

	if got := settings.FailurePolicy(); got != FailurePolicyHard {
		t.Errorf("FailurePolicy() = %q, want %q", got, FailurePolicyHard)
	}

	settings.update(FailurePolicySoft, 3500)

	if got := settings.FailurePolicy(); got != FailurePolicySoft {
		t.Errorf("FailurePolicy() after update = %q, want %q", got, FailurePolicySoft)
	}
	if got := settings.EvidenceThreshold(); got != 3500 {
		t.Errorf("EvidenceThreshold() after update = %d, want 3500", got)
	}
}

func TestReloadAnalysis(t *testing.T) {
	tests := []struct {
		name          string
		analysis      map[string]any
		wantPolicy    string
		wantThreshold int
	}{
		{
			name:          "valid values applied",
			analysis:      map[string]any{"failurePolicy": "soft", "evidenceThreshold": 1500},
			wantPolicy:    FailurePolicySoft,
			wantThreshold: 1500,
		},
		{
			name:          "invalid policy keeps last good settings",
			analysis:      map[string]any{"failurePolicy": "lenient", "evidenceThreshold": 1500},
			wantPolicy:    FailurePolicyHard,
			wantThreshold: 2000,
		},
		{
			name:          "non-positive threshold keeps last good settings",
			analysis:      map[string]any{"failurePolicy": "soft", "evidenceThreshold": 0},
			wantPolicy:    FailurePolicyHard,
			wantThreshold: 2000,
		},
		{
			name:          "missing section keeps last good settings",
			analysis:      nil,
			wantPolicy:    FailurePolicyHard,
			wantThreshold: 2000,
		},
	}

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := NewAnalysisSettings(&AnalysisConfig{
				FailurePolicy:     FailurePolicyHard,
				EvidenceThreshold: 2000,
			})

			v := viper.New()
			if tt.analysis != nil {
				v.Set("analysis", tt.analysis)
			}

			reloadAnalysis(v, settings, logger, "config.yaml")

			if got := settings.FailurePolicy(); got != tt.wantPolicy {
				t.Errorf("FailurePolicy() = %q, want %q", got, tt.wantPolicy)
			}
			if got := settings.EvidenceThreshold(); got != tt.wantThreshold {
				t.Errorf("EvidenceThreshold() = %d, want %d", got, tt.wantThreshold)
			}
		})
	}
}
