package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"intellifinance/fincat/internal/assistant"
	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

const (
	maxBatchSize      = 1000
	defaultImportance = 20
)

type batchRequest struct {
	Transactions []models.TransactionRecord `json:"transactions"`
}

type batchResponse struct {
	Decisions []categorizer.Decision `json:"decisions"`
	Count     int                    `json:"count"`
}

type trainRequest struct {
	Examples []models.LabeledTransaction `json:"examples"`
}

type trainResponse struct {
	Report    *classifier.TrainingReport `json:"report"`
	Persisted bool                       `json:"persisted"`
	Warning   string                     `json:"warning,omitempty"`
}

type feedbackResponse struct {
	ID string `json:"id"`
}

type importanceResponse struct {
	Features []classifier.FeatureWeight `json:"features"`
}

type assistantRequest struct {
	Query string `json:"query"`
}

type assistantResponse struct {
	Type    assistant.Intent   `json:"type"`
	Message string             `json:"message"`
	Data    assistant.Response `json:"data"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Trained bool   `json:"trained"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok", Trained: s.cat.Status().Trained})
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var rec models.TransactionRecord
	if err := decodeBody(w, r, &rec); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, s.cat.Decide(r.Context(), rec))
}

func (s *Server) handleCategorizeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Transactions) > maxBatchSize {
		respondWithError(w, http.StatusBadRequest, "too many transactions in one batch, maximum is "+strconv.Itoa(maxBatchSize))
		return
	}
	decisions := s.cat.PredictBatch(r.Context(), req.Transactions)
	if decisions == nil {
		decisions = []categorizer.Decision{}
	}
	respondWithJSON(w, http.StatusOK, batchResponse{Decisions: decisions, Count: len(decisions)})
}

func (s *Server) handleModelStatus(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, s.cat.Status())
}

func (s *Server) handleImportance(w http.ResponseWriter, r *http.Request) {
	top := defaultImportance
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = n
	}
	features := s.cat.FeatureImportance(top)
	if features == nil {
		features = []classifier.FeatureWeight{}
	}
	respondWithJSON(w, http.StatusOK, importanceResponse{Features: features})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.cat.Train(r.Context(), req.Examples)
	s.respondWithTraining(w, report, err)
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	report, err := s.cat.RetrainFromFeedback(r.Context())
	s.respondWithTraining(w, report, err)
}

// respondWithTraining maps a training outcome to a status code. A model that
// trained but could not be saved is still live, so that is a 200 with a warning.
func (s *Server) respondWithTraining(w http.ResponseWriter, report *classifier.TrainingReport, err error) {
	var (
		insufficient *categorizer.InsufficientDataError
		writeErr     *categorizer.ArtifactWriteError
	)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, trainResponse{Report: report, Persisted: true})
	case errors.As(err, &writeErr) && report != nil:
		respondWithJSON(w, http.StatusOK, trainResponse{Report: report, Persisted: false, Warning: err.Error()})
	case errors.As(err, &insufficient):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, categorizer.ErrNoFeedbackStore):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.WithError(err).Error("Training request failed")
		respondWithError(w, http.StatusInternalServerError, "training failed")
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var lt models.LabeledTransaction
	if err := decodeBody(w, r, &lt); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.cat.RecordFeedback(r.Context(), lt)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusCreated, feedbackResponse{ID: id})
	case errors.Is(err, categorizer.ErrInvalidFeedback):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, categorizer.ErrNoFeedbackStore):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.WithError(err).Error("Feedback request failed")
		respondWithError(w, http.StatusInternalServerError, "failed to record feedback")
	}
}

func (s *Server) handleAssistantQuery(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		respondWithError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	var req assistantRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}
	resp, err := s.assistant.Ask(r.Context(), req.Query)
	if err != nil {
		s.logger.WithError(err).Error("Assistant query failed")
		respondWithError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}
	s.logger.Info("Assistant query answered", logging.F(logging.FieldIntent, string(resp.Intent())))
	respondWithJSON(w, http.StatusOK, assistantResponse{Type: resp.Intent(), Message: resp.Message(), Data: resp})
}
