package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"skillscope/internal/errors"
)

// AnalysisSettings is the hot-reloadable subset of configuration. The
// failure policy and evidence threshold can be flipped on a running server
// by editing the config file; everything else requires a restart.
type AnalysisSettings struct {
	mu        sync.RWMutex
	policy    string
	threshold int
}

// NewAnalysisSettings seeds the settings from the loaded configuration.
func NewAnalysisSettings(cfg *AnalysisConfig) *AnalysisSettings {
	return &AnalysisSettings{
		policy:    cfg.FailurePolicy,
		threshold: cfg.EvidenceThreshold,
	}
}

// FailurePolicy returns the current failure policy.
func (s *AnalysisSettings) FailurePolicy() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// EvidenceThreshold returns the current augmentation threshold.
func (s *AnalysisSettings) EvidenceThreshold() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

func (s *AnalysisSettings) update(policy string, threshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
	s.threshold = threshold
}

// WatchAnalysis re-reads the analysis section when the config file changes.
// Invalid values are logged and ignored; the last good settings stay active.
func WatchAnalysis(settings *AnalysisSettings, logger *errors.Logger) {
	if loadedViper == nil {
		return
	}

	loadedViper.OnConfigChange(func(e fsnotify.Event) {
		reloadAnalysis(loadedViper, settings, logger, e.Name)
	})
	loadedViper.WatchConfig()
}

// reloadAnalysis applies the analysis section of v to the settings. Rejected
// values leave the previous settings in place.
func reloadAnalysis(v *viper.Viper, settings *AnalysisSettings, logger *errors.Logger, source string) {
	var cfg AnalysisConfig
	if err := v.UnmarshalKey("analysis", &cfg); err != nil {
		logger.Warn("config reload failed", "file", source, "error", err)
		return
	}

	if cfg.FailurePolicy != FailurePolicyHard && cfg.FailurePolicy != FailurePolicySoft {
		logger.Warn("config reload ignored: invalid failurePolicy", "value", cfg.FailurePolicy)
		return
	}
	if cfg.EvidenceThreshold <= 0 {
		logger.Warn("config reload ignored: invalid evidenceThreshold", "value", cfg.EvidenceThreshold)
		return
	}

	settings.update(cfg.FailurePolicy, cfg.EvidenceThreshold)
	logger.Info("analysis settings reloaded",
		"failurePolicy", cfg.FailurePolicy,
		"evidenceThreshold", cfg.EvidenceThreshold)
}
