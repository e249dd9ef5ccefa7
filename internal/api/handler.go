// Package api exposes the course track recommender over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-placement/internal/placement"
	"github.com/p-n-ai/pai-placement/internal/questionnaire"
)

const maxBodyBytes = 64 << 10

const recommendationSchema = `{
  "type": "object",
  "required": ["answers"],
  "additionalProperties": false,
  "properties": {
    "answers": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "string"}
    }
  }
}`

// Limiter throttles requests per client key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds dependencies for the handler. Catalog and Limiter are optional.
type Config struct {
	Scorer  *placement.Scorer
	Catalog *questionnaire.Loader
	Limiter Limiter
}

// Handler serves recommendation requests.
type Handler struct {
	scorer  *placement.Scorer
	catalog *questionnaire.Loader
	limiter Limiter
	schema  *gojsonschema.Schema
}

// RecommendationRequest is the body of POST /v1/recommendations.
type RecommendationRequest struct {
	Answers map[string]string `json:"answers"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// NewHandler creates a handler. A nil Scorer uses the default policy.
func NewHandler(cfg Config) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recommendationSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}

	scorer := cfg.Scorer
	if scorer == nil {
		scorer = placement.NewScorer(placement.DefaultPolicy())
	}

	return &Handler{
		scorer:  scorer,
		catalog: cfg.Catalog,
		limiter: cfg.Limiter,
		schema:  schema,
	}, nil
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/recommendations", h.handleRecommend)
	mux.HandleFunc("GET /v1/questionnaire", h.handleQuestionnaire)
	mux.HandleFunc("GET /v1/policy", h.handlePolicy)
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r) {
		writeError(w, http.StatusTooManyRequests, "too many requests, try again in a minute")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if problems, err := h.validateBody(body); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	} else if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, "request does not match schema", problems...)
		return
	}

	var req RecommendationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	answers, err := normalizeAnswers(req.Answers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.catalog != nil {
		if err := h.catalog.Validate(answers); err != nil {
			var vErr *questionnaire.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusUnprocessableEntity, "answers do not match the questionnaire", vErr.Problems...)
				return
			}
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	res := h.scorer.Compute(answers)

	slog.Info("recommendation computed",
		"course", res.Course,
		"level", res.Level,
		"confidence", res.Confidence,
		"answers", len(answers),
	)

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleQuestionnaire(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil {
		writeError(w, http.StatusNotFound, "no questionnaire configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": h.catalog.Sections()})
}

func (h *Handler) handlePolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.scorer.Policy())
}

// allow applies the rate limit. Limiter failures let the request through.
func (h *Handler) allow(r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	ok, err := h.limiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return ok
}

func (h *Handler) validateBody(body []byte) ([]string, error) {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// normalizeAnswers applies the same ID normalization as the questionnaire catalog.
func normalizeAnswers(in map[string]string) (placement.Answers, error) {
	out := make(placement.Answers, len(in))
	for q, o := range in {
		qid := questionnaire.NormalizeID(q)
		if qid == "" {
			return nil, fmt.Errorf("question id must not be blank")
		}
		if _, dup := out[qid]; dup {
			return nil, fmt.Errorf("question %q answered more than once", qid)
		}
		out[qid] = questionnaire.NormalizeID(o)
	}
	return out, nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}
