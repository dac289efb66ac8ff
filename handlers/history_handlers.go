// handlers/history_handlers.go
package handlers

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mechanicalh600-lang/CheckList/config"
	"github.com/mechanicalh600-lang/CheckList/middleware"
	"github.com/mechanicalh600-lang/CheckList/pkg/submission"
)

// Roles allowed to read every inspector's records. Everyone else is scoped to
// their own personnel code.
var reportRoles = []string{"admin", "manager", "cm", "technical"}

// scopeFor returns the inspector-code filter for the requester: operators are
// pinned to their own code, report roles may pass ?inspector= or see all.
func scopeFor(r *http.Request) string {
	claims := middleware.GetClaims(r)
	if claims == nil {
		return ""
	}
	if claims.Role == "super_admin" || slices.Contains(reportRoles, claims.Role) {
		return r.URL.Query().Get("inspector")
	}
	return claims.Code
}

// GetInspections lists inspection records as aggregate projections.
func GetInspections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := historyService().Overview(r.Context(), scopeFor(r), q.Get("start"), q.Get("end"))
	if err != nil {
		http.Error(w, "could not load inspections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetInspectionDetails hydrates specific records by id, e.g. when the client
// drills into a row fetched in overview mode.
func GetInspectionDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	for _, id := range req.IDs {
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "invalid record id", http.StatusBadRequest)
			return
		}
	}
	rows, err := historyService().DetailsByIDs(r.Context(), req.IDs)
	if err != nil {
		http.Error(w, "could not load records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetFullReport returns the hydrated record set for a date range across all
// inspectors, for the reports dashboard.
func GetFullReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := historyService().FullReport(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		http.Error(w, "could not load report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetTopFailures returns the most frequent failed tasks per equipment.
func GetTopFailures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := historyService().TopFailures(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		http.Error(w, "could not load failures", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// UpdateInspectionStatus changes the lifecycle status of a submitted record
// and invalidates the read cache so lists pick it up immediately.
func UpdateInspectionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	store := submission.NewGormStore(config.DB)
	if err := store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		http.Error(w, "could not update status", http.StatusInternalServerError)
		return
	}
	historyCache.InvalidateAll()
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}
