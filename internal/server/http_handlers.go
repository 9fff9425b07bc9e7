package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"skillscope/internal/analysis"
	"skillscope/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// analyzeHandler runs one skill-gap analysis per request
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	tracer := otel.Tracer("skillscope.api")
	ctx, span := tracer.Start(ctx, "api.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.CurrentRole) == "" {
		writeErrorResponse(w, "Missing current role", "currentRole field is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.TargetRole) == "" {
		writeErrorResponse(w, "Missing target role", "targetRole field is required", http.StatusBadRequest)
		return
	}

	// A request without passages falls back to the stored corpus for the
	// role pair, when a passage store is configured.
	if len(req.Passages) == 0 && s.passages != nil {
		stored, err := s.passages.FetchByTransition(ctx, req.CurrentRole, req.TargetRole)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "storage"))
			writeErrorResponse(w, "Failed to load stored passages", err.Error(), http.StatusInternalServerError)
			return
		}
		req.Passages = stored
	}

	span.SetAttributes(
		attribute.String("request.current_role", req.CurrentRole),
		attribute.String("request.target_role", req.TargetRole),
		attribute.Int("request.passage_count", len(req.Passages)),
	)

	tc := types.TransitionContext{
		CurrentRole:    req.CurrentRole,
		TargetRole:     req.TargetRole,
		ExistingSkills: req.ExistingSkills,
		Passages:       req.Passages,
	}

	gaps, err := s.analyzer.Analyze(ctx, tc)
	if err != nil {
		span.RecordError(err)

		var analysisErr *analysis.AnalysisError
		if errors.As(err, &analysisErr) {
			span.SetAttributes(attribute.String("error.type", string(analysisErr.Kind)))
			writeErrorResponse(w, "Analysis failed",
				analysisErr.Error(), http.StatusUnprocessableEntity)
			return
		}

		span.SetAttributes(attribute.String("error.type", "internal"))
		writeErrorResponse(w, "Failed to analyze skill gaps", err.Error(), http.StatusInternalServerError)
		return
	}

	report := analysis.BuildReport(tc, gaps)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("response.gap_count", len(gaps)),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.Printf("Failed to encode analyze response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "skillscope",
		"version": s.Version,
	}

	overallHealthy := true

	if s.aiService != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		modelInfo := s.aiService.Provider.GetModelInfo(ctx)
		response["ai_model"] = modelInfo
		if modelInfo != nil && !modelInfo.Available {
			overallHealthy = false
		}
	}

	response["analysis"] = map[string]any{
		"failure_policy":     s.settings.FailurePolicy(),
		"evidence_threshold": s.settings.EvidenceThreshold(),
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "skillscope",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.aiService != nil {
		if provider, ok := s.aiService.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
			response["circuit_breakers"] = provider.GetCircuitBreakerStats()
		}
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
