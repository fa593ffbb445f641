package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// handleStatus returns the current capture status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.status())
}

// handleActivations returns paginated activation history
func (s *Server) handleActivations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, offset := pagination(r, 50)

	activations, err := s.db.GetActivations(limit, offset)
	if err != nil {
		slog.Error("Failed to get activations", "error", err)
		http.Error(w, "Failed to get activations", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetActivationCount()
	if err != nil {
		slog.Error("Failed to get activation count", "error", err)
		http.Error(w, "Failed to get activations", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"activations": activations,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleDiagnostics returns paginated capture health events
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, offset := pagination(r, 50)

	diags, err := s.db.GetDiagnostics(limit, offset)
	if err != nil {
		slog.Error("Failed to get diagnostics", "error", err)
		http.Error(w, "Failed to get diagnostics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"diagnostics": diags,
		"limit":       limit,
		"offset":      offset,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStats returns daily activation counts for the specified range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	daysStr := r.URL.Query().Get("days")
	days := 7 // default to 7 days
	if daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	daily, err := s.db.GetDailyActivationCounts(days)
	if err != nil {
		slog.Error("Failed to get daily counts", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"daily": daily,
		"days":  days,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}
