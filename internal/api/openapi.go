package api

import (
	"net/http"

	"stb/internal/version"
)

// handleOpenAPISpec returns the OpenAPI specification
func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	spec := GenerateOpenAPISpec()
	WriteJSON(w, spec, http.StatusOK)
}

// GenerateOpenAPISpec generates the OpenAPI specification for the API
func GenerateOpenAPISpec() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "STB HTTP API",
			"version":     version.Version,
			"description": "SAS translation-blueprint analysis API",
		},
		"servers": []map[string]interface{}{
			{
				"url":         "http://localhost:8000",
				"description": "Local development server",
			},
		},
		"paths": map[string]interface{}{
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Simple liveness check for load balancers",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Server is healthy",
						},
					},
				},
			},
			"/parse": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Analyze SAS source",
					"description": "Lexes the submitted source and returns tokens, lexical errors, and the translation-readiness blueprint",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{"code"},
									"properties": map[string]interface{}{
										"code": map[string]interface{}{
											"type":        "string",
											"description": "SAS source text",
										},
										"filename": map[string]interface{}{
											"type":        "string",
											"description": "Optional label for the history record",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Analysis result with tokens, errors, and blueprint",
						},
						"400": map[string]interface{}{
							"description": "Malformed request body",
						},
						"413": map[string]interface{}{
							"description": "Source exceeds the configured size limit",
						},
					},
				},
			},
			"/analyses": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List stored analyses",
					"description": "Returns analysis summaries, newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum number of results",
							"schema": map[string]interface{}{
								"type":    "integer",
								"default": 50,
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Analysis summaries",
						},
						"409": map[string]interface{}{
							"description": "History is disabled",
						},
					},
				},
			},
			"/analyses/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get stored analysis",
					"description": "Returns one stored analysis with its blueprint and original source",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"required":    true,
							"description": "Analysis identifier",
							"schema": map[string]interface{}{
								"type": "string",
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Stored analysis",
						},
						"404": map[string]interface{}{
							"description": "Analysis not found",
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Request, parse, and runtime metrics in Prometheus text format",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Metrics in text exposition format",
						},
					},
				},
			},
		},
	}
}
