package search

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillscope/internal/config"
	"skillscope/internal/errors"
)

func newTestClient(baseURL string) *HTTPClient {
	return NewHTTPClient(&config.SearchConfig{
		Enabled:    true,
		BaseURL:    baseURL,
		APIKey:     "test-search-key",
		Timeout:    5 * time.Second,
		MaxResults: 3,
	}, errors.NewLogger(slog.LevelError))
}

func TestSearchMapsResultsToPassages(t *testing.T) {
	var gotAuth, gotQuery, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"ML Engineer Hiring Guide","url":"https://example.com/guide","snippet":"Deep learning and MLOps experience required."},
			{"title":"","url":"https://example.com/other","snippet":"Distributed training at scale."},
			{"title":"Empty One","url":"https://example.com/empty","snippet":""}
		]}`))
	}))
	defer server.Close()

	passages, err := newTestClient(server.URL).Search(context.Background(),
		"Machine Learning Engineer required skills and qualifications")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "Bearer test-search-key" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotQuery != "Machine Learning Engineer required skills and qualifications" {
		t.Errorf("query param = %q", gotQuery)
	}
	if gotLimit != "3" {
		t.Errorf("limit param = %q, want 3", gotLimit)
	}

	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2 (empty snippets dropped)", len(passages))
	}
	if passages[0].Source != "ML Engineer Hiring Guide" {
		t.Errorf("passages[0].Source = %q", passages[0].Source)
	}
	if passages[0].Content != "Deep learning and MLOps experience required." {
		t.Errorf("passages[0].Content = %q", passages[0].Content)
	}
	// Untitled results fall back to the URL as source.
	if passages[1].Source != "https://example.com/other" {
		t.Errorf("passages[1].Source = %q", passages[1].Source)
	}
}

func TestSearchReturnsErrorOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("Search() = nil error, want error on 429")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("Search() error type = %T, want *errors.AppError", err)
	}
	if appErr.Code != errors.ErrCodeSearchFailed {
		t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeSearchFailed)
	}
}

func TestSearchReturnsErrorOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Search(context.Background(), "anything"); err == nil {
		t.Fatal("Search() = nil error, want decode error")
	}
}
