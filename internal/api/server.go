// Package api exposes categorization, training, feedback and the finance
// assistant over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"intellifinance/fincat/internal/assistant"
	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// Defaults for Config.
const (
	DefaultAddress      = ":8080"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 5 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

// Categorizer is the engine surface served over HTTP.
type Categorizer interface {
	Decide(ctx context.Context, rec models.TransactionRecord) categorizer.Decision
	PredictBatch(ctx context.Context, recs []models.TransactionRecord) []categorizer.Decision
	Train(ctx context.Context, examples []models.LabeledTransaction, opts ...categorizer.TrainOption) (*classifier.TrainingReport, error)
	RecordFeedback(ctx context.Context, lt models.LabeledTransaction) (string, error)
	RetrainFromFeedback(ctx context.Context, opts ...categorizer.TrainOption) (*classifier.TrainingReport, error)
	Status() categorizer.Status
	FeatureImportance(topN int) []classifier.FeatureWeight
}

// Assistant answers finance questions.
type Assistant interface {
	Ask(ctx context.Context, query string) (assistant.Response, error)
}

// Config holds listener settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server routes HTTP requests to the categorizer and assistant.
type Server struct {
	cfg       Config
	cat       Categorizer
	assistant Assistant
	logger    logging.Logger
	router    *mux.Router
}

// NewServer builds the router. A nil assistant disables the assistant route.
func NewServer(cfg Config, cat Categorizer, asst Assistant, logger logging.Logger) (*Server, error) {
	if cat == nil {
		return nil, errors.New("categorizer is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	s := &Server{cfg: cfg, cat: cat, assistant: asst, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/categorize", s.handleCategorize).Methods(http.MethodPost)
	v1.HandleFunc("/categorize/batch", s.handleCategorizeBatch).Methods(http.MethodPost)
	v1.HandleFunc("/model", s.handleModelStatus).Methods(http.MethodGet)
	v1.HandleFunc("/model/importance", s.handleImportance).Methods(http.MethodGet)
	v1.HandleFunc("/model/train", s.handleTrain).Methods(http.MethodPost)
	v1.HandleFunc("/model/retrain", s.handleRetrain).Methods(http.MethodPost)
	v1.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)
	v1.HandleFunc("/assistant/query", s.handleAssistantQuery).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.F("address", s.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
