// Package response provides helpers for writing JSON API responses.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/climatlas/climatlas/internal/api/middleware"
	"github.com/climatlas/climatlas/internal/api/models"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", middleware.GetRequestID(r.Context()))
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Error writes an RFC7807 Problem response.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	if problem.Instance == "" {
		problem.Instance = r.URL.Path
	}
	problem.Write(w)
}

// BadRequest writes a 400 Problem response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail))
}

// NotFound writes a 404 Problem response.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

// InternalError writes a 500 Problem response.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(middleware.GetRequestID(r.Context()), detail))
}

// ServiceUnavailable writes a 503 Problem response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(middleware.GetRequestID(r.Context()), detail))
}

// Accepted writes a 202 response with a Location header.
func Accepted(w http.ResponseWriter, r *http.Request, location string, body any) {
	w.Header().Set("Location", location)
	JSON(w, r, http.StatusAccepted, body)
}
