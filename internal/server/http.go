package server

import (
	"context"

	"skillscope/internal/ai"
	"skillscope/internal/analysis"
	"skillscope/internal/config"
	skillscopeErrors "skillscope/internal/errors"
	"skillscope/internal/fallback"
	"skillscope/internal/passages"
	"skillscope/internal/observability"
	"skillscope/internal/search"
	"skillscope/internal/types"
)

// AnalyzeRequest represents the request body for the analyze endpoint
type AnalyzeRequest struct {
	CurrentRole    string          `json:"currentRole"`
	TargetRole     string          `json:"targetRole"`
	ExistingSkills []string        `json:"existingSkills,omitempty"`
	Passages       []types.Passage `json:"passages,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Analyzer is the part of the analysis pipeline the HTTP layer depends on.
type Analyzer interface {
	Analyze(ctx context.Context, tc types.TransitionContext) ([]types.SkillGapAnalysis, error)
}

// Server holds the HTTP server and its wired pipeline
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	// TLS certificate files; both set or both empty
	TLSCertFile string
	TLSKeyFile  string

	// API Authentication
	APIKeys map[string]bool

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	analyzer  Analyzer
	aiService *ai.Service
	passages  passages.Store
	settings  *config.AnalysisSettings
	obs       *observability.Manager

	Logger *skillscopeErrors.Logger
}

// NewServer wires the full analysis pipeline behind an HTTP server.
func NewServer(ctx context.Context, cfg *config.Config, version string, logger *skillscopeErrors.Logger) (*Server, error) {
	obs, err := observability.NewManager(cfg)
	if err != nil {
		return nil, err
	}

	aiService, err := ai.NewService(&cfg.AI, logger)
	if err != nil {
		return nil, err
	}

	var searchClient search.Client
	if cfg.Search.Enabled {
		searchClient = search.NewHTTPClient(&cfg.Search, logger)
	}

	var passageStore passages.Store
	if cfg.Passages.Enabled {
		store, err := passages.NewPostgresStore(ctx, cfg.Passages.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		passageStore = store
	}

	settings := config.NewAnalysisSettings(&cfg.Analysis)
	config.WatchAnalysis(settings, logger)

	analyzer := analysis.NewAnalyzer(
		aiService.Provider,
		searchClient,
		fallback.NewGenerator(fallback.NewStaticCatalog()),
		settings,
		logger,
		obs.GetMetrics(),
	)

	// API keys as a map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
			obs.GetMetrics(),
		)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AppConfig:      cfg,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		APIKeys:        apiKeyMap,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		analyzer:       analyzer,
		aiService:      aiService,
		passages:       passageStore,
		settings:       settings,
		obs:            obs,
		Logger:         logger,
	}, nil
}
