package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

const (
	maxBodyBytes = 8 << 20

	defaultListLimit = 50
	maxListLimit     = 500
)

var requestValidate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go ones.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("maxquery", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= core.MaxQueryLength
	})
	return v
}

// SynthesisRequest is the body of POST /api/v1/consensus.
// Only structural limits are enforced here; the engine decides which
// responses are usable.
type SynthesisRequest struct {
	Query                     string                 `json:"query" validate:"maxquery"`
	Responses                 []AgentResponseRequest `json:"responses" validate:"max=64,dive"`
	Context                   map[string]interface{} `json:"context,omitempty"`
	RequireClinicalValidation bool                   `json:"require_clinical_validation,omitempty"`
	MinimumConfidence         *float64               `json:"minimum_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	AgentWeights              map[string]float64     `json:"agent_weights,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	// Store overrides whether the result is persisted; nil follows the server setting.
	Store *bool `json:"store,omitempty"`
}

// AgentResponseRequest is one agent answer inside a SynthesisRequest.
type AgentResponseRequest struct {
	AgentID             string                 `json:"agent_id" validate:"required,max=128"`
	Answer              string                 `json:"answer" validate:"max=65536"`
	Confidence          float64                `json:"confidence"`
	EvidenceGrade       string                 `json:"evidence_grade" validate:"max=16"`
	EvidenceSources     []string               `json:"evidence_sources,omitempty" validate:"max=50,dive,max=1024"`
	ClinicallyValidated bool                   `json:"clinically_validated,omitempty"`
	CreatedAt           time.Time              `json:"created_at,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the request's structural limits.
func (r *SynthesisRequest) Validate() error {
	return requestValidate.Struct(r)
}

// ToInput converts the request into engine input.
func (r *SynthesisRequest) ToInput() *core.ConsensusInput {
	input := &core.ConsensusInput{
		Query:                     r.Query,
		Context:                   r.Context,
		RequireClinicalValidation: r.RequireClinicalValidation,
		MinimumConfidence:         r.MinimumConfidence,
		AgentWeights:              r.AgentWeights,
		Responses:                 make([]core.AgentResponse, 0, len(r.Responses)),
	}
	for _, resp := range r.Responses {
		input.Responses = append(input.Responses, core.AgentResponse{
			AgentID:             resp.AgentID,
			Answer:              resp.Answer,
			Confidence:          resp.Confidence,
			EvidenceGrade:       core.EvidenceGrade(resp.EvidenceGrade),
			EvidenceSources:     resp.EvidenceSources,
			ClinicallyValidated: resp.ClinicallyValidated,
			CreatedAt:           resp.CreatedAt,
			Metadata:            resp.Metadata,
		})
	}
	return input
}

// ResultListResponse is the body of GET /api/v1/consensus.
type ResultListResponse struct {
	Results []core.ResultSummary `json:"results"`
	Count   int                  `json:"count"`
}

// handleSynthesize runs the engine on the posted responses.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SynthesisRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	input := req.ToInput()
	result, err := s.engine.Synthesize(r.Context(), input)
	if err != nil {
		s.logger.Warn("synthesis failed", "error", err, "request_id", requestID(r))
		respondDomainError(w, err)
		return
	}

	persist := s.store != nil
	if req.Store != nil {
		persist = persist && *req.Store
	}
	if persist {
		if err := s.store.Save(r.Context(), input, result); err != nil {
			// The result is still returned; only history is affected.
			s.logger.Error("failed to store result", "result_id", result.ID, "error", err)
		} else {
			w.Header().Set("Location", "/api/v1/consensus/"+result.ID)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// handleListResults returns stored result summaries, newest first.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "result store not configured")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	results, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list results", "error", err)
		respondDomainError(w, err)
		return
	}
	if results == nil {
		results = []core.ResultSummary{}
	}
	respondJSON(w, http.StatusOK, ResultListResponse{Results: results, Count: len(results)})
}

// handleGetResult returns one stored result.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "result store not configured")
		return
	}

	id := chi.URLParam(r, "resultID")
	result, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = describeFieldError(fe)
	}
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "request validation failed",
		Code:    "INVALID_REQUEST",
		Details: fields,
	})
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "maxquery":
		return fmt.Sprintf("exceeds %d bytes", core.MaxQueryLength)
	case "max":
		return "exceeds maximum of " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
