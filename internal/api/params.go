package api

import (
	"net/http"
	"strconv"
	"strings"
)

// GetPathParam extracts a path parameter from the URL
// For example, with pattern "/analyses/{id}", GetPathParam(r, "/analyses/") returns the ID
func GetPathParam(r *http.Request, prefix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

// QueryParamInt extracts an integer query parameter with a default value
func QueryParamInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
