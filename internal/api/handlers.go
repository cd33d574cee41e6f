package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stb/internal/blueprint"
	"stb/internal/errors"
	"stb/internal/lexer"
	"stb/internal/storage"
)

// ParseRequest is the /parse request body. Filename is optional and
// only used to label the stored history record.
type ParseRequest struct {
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
}

// ParseResponse is the /parse response payload.
type ParseResponse struct {
	Success   bool                 `json:"success"`
	Tokens    []lexer.Token        `json:"tokens"`
	Errors    []lexer.LexError     `json:"errors"`
	Blueprint *blueprint.Blueprint `json:"blueprint"`
}

// AnalysisSummaryView is the listing view of a stored analysis.
type AnalysisSummaryView struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	FileName    string    `json:"fileName"`
	SourceLines int       `json:"sourceLines"`
	TokenCount  int       `json:"tokenCount"`
	ErrorCount  int       `json:"errorCount"`
	Score       int       `json:"score"`
	Priority    string    `json:"priority"`
}

// AnalysisView is the full view of a stored analysis, blueprint and
// original source included.
type AnalysisView struct {
	AnalysisSummaryView
	Blueprint json.RawMessage `json:"blueprint"`
	Source    string          `json:"source"`
}

// handleParse analyzes submitted SAS source and returns its tokens,
// lexical errors, and translation-readiness blueprint.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	maxBytes := int64(s.opts.MaxSourceBytes)
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RecordParse("rejected", time.Since(start))
		WriteStbError(w, errors.NewStbError(
			errors.SourceTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", maxBytes),
			err, nil, nil,
		))
		return
	}

	var req ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.metrics.RecordParse("rejected", time.Since(start))
		WriteStbError(w, errors.NewStbError(
			errors.InvalidRequest,
			`request body must be a JSON object with a "code" field`,
			err, nil, nil,
		))
		return
	}

	// Check the memo cache before analyzing. Analysis is deterministic,
	// so the source hash fully identifies the result.
	key := sourceKey(req.Code)
	result, hit := s.cache.Get(key)
	if hit {
		s.metrics.RecordParse("cached", time.Since(start))
	} else {
		result = blueprint.Analyze(req.Code)
		s.cache.Add(key, result)
		s.metrics.RecordParse("analyzed", time.Since(start))
	}

	if s.opts.Store != nil {
		s.recordAnalysis(r, &req, result)
	}

	WriteJSON(w, ParseResponse{
		Success:   true,
		Tokens:    result.Tokens,
		Errors:    result.Errors,
		Blueprint: result.Blueprint,
	}, http.StatusOK)
}

// sourceKey returns the cache key for a piece of source text
func sourceKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// recordAnalysis persists a successful parse to history. Failures are
// logged, not surfaced; history is best-effort from the API's side.
func (s *Server) recordAnalysis(r *http.Request, req *ParseRequest, result *blueprint.Result) {
	fileName := req.Filename
	if fileName == "" {
		fileName = "untitled.sas"
	}

	blueprintJSON, err := json.Marshal(result.Blueprint)
	if err != nil {
		s.logger.Warn("Failed to encode blueprint for history", map[string]interface{}{
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		return
	}

	analysis := &storage.Analysis{
		FileName:      fileName,
		SourceLines:   result.Blueprint.Summary.TotalLines,
		TokenCount:    result.Blueprint.Summary.TotalTokens,
		ErrorCount:    len(result.Errors),
		Score:         result.Blueprint.Summary.ComplexityScore,
		Priority:      string(result.Blueprint.Summary.TranslationPriority),
		BlueprintJSON: string(blueprintJSON),
		Source:        req.Code,
	}

	if err := s.opts.Store.Insert(analysis); err != nil {
		s.logger.Warn("Failed to record analysis", map[string]interface{}{
			"error":     err.Error(),
			"fileName":  fileName,
			"requestID": GetRequestID(r.Context()),
		})
		return
	}

	s.metrics.RecordStored()
}

// handleListAnalyses returns stored analysis summaries, newest first
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.opts.Store == nil {
		WriteStbError(w, errors.NewStbError(
			errors.HistoryDisabled,
			"analysis history is disabled",
			nil, errors.GetSuggestedFixes(errors.HistoryDisabled), nil,
		))
		return
	}

	limit := QueryParamInt(r, "limit", 50)
	summaries, err := s.opts.Store.List(limit)
	if err != nil {
		s.logger.Error("Failed to list analyses", map[string]interface{}{
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		InternalError(w, "Failed to list analyses", err)
		return
	}

	views := make([]AnalysisSummaryView, 0, len(summaries))
	for _, sum := range summaries {
		views = append(views, AnalysisSummaryView{
			ID:          sum.ID,
			CreatedAt:   sum.CreatedAt,
			FileName:    sum.FileName,
			SourceLines: sum.SourceLines,
			TokenCount:  sum.TokenCount,
			ErrorCount:  sum.ErrorCount,
			Score:       sum.Score,
			Priority:    sum.Priority,
		})
	}

	total, err := s.opts.Store.Count()
	if err != nil {
		InternalError(w, "Failed to count analyses", err)
		return
	}
	byPriority, err := s.opts.Store.CountByPriority()
	if err != nil {
		InternalError(w, "Failed to count analyses", err)
		return
	}

	WriteJSON(w, map[string]interface{}{
		"analyses":   views,
		"count":      len(views),
		"total":      total,
		"byPriority": byPriority,
	}, http.StatusOK)
}

// handleGetAnalysis returns one stored analysis by ID
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.opts.Store == nil {
		WriteStbError(w, errors.NewStbError(
			errors.HistoryDisabled,
			"analysis history is disabled",
			nil, errors.GetSuggestedFixes(errors.HistoryDisabled), nil,
		))
		return
	}

	id := GetPathParam(r, "/analyses/")
	if id == "" {
		BadRequest(w, "analysis id required")
		return
	}

	analysis, err := s.opts.Store.Get(id)
	if err != nil {
		s.logger.Error("Failed to load analysis", map[string]interface{}{
			"error":     err.Error(),
			"id":        id,
			"requestID": GetRequestID(r.Context()),
		})
		InternalError(w, "Failed to load analysis", err)
		return
	}
	if analysis == nil {
		NotFound(w, "analysis not found: "+id)
		return
	}

	view := AnalysisView{
		AnalysisSummaryView: AnalysisSummaryView{
			ID:          analysis.ID,
			CreatedAt:   analysis.CreatedAt,
			FileName:    analysis.FileName,
			SourceLines: analysis.SourceLines,
			TokenCount:  analysis.TokenCount,
			ErrorCount:  analysis.ErrorCount,
			Score:       analysis.Score,
			Priority:    analysis.Priority,
		},
		Blueprint: json.RawMessage(analysis.BlueprintJSON),
		Source:    analysis.Source,
	}

	WriteJSON(w, view, http.StatusOK)
}
