package api

import (
	"net/http"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth)

	// Analysis
	s.router.HandleFunc("/parse", s.handleParse)

	// Stored history
	s.router.HandleFunc("/analyses", s.handleListAnalyses)
	s.router.HandleFunc("/analyses/", s.handleGetAnalysis) // GET /analyses/:id

	// Metrics
	s.router.HandleFunc("/metrics", s.handleMetrics)

	// OpenAPI spec
	s.router.HandleFunc("/openapi.json", s.handleOpenAPISpec)

	// Root endpoint
	s.router.HandleFunc("/", s.handleRoot)
}

// handleRoot handles requests to the root path
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"message": "STB analysis API is running",
	}

	WriteJSON(w, response, http.StatusOK)
}
