// handlers/inspection_flow.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mechanicalh600-lang/CheckList/config"
	"github.com/mechanicalh600-lang/CheckList/middleware"
	"github.com/mechanicalh600-lang/CheckList/models"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
	"github.com/mechanicalh600-lang/CheckList/pkg/flow"
)

// Media caps match what a phone capture produces after client-side compression.
const (
	maxPhotoBytes = 1 << 20       // 1 MB
	maxVideoBytes = 15 * (1 << 20) // 15 MB
)

// StartFlow creates a fresh capture workflow for the token holder.
func StartFlow(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	f := flows.Start(claims.Name, claims.Code)
	writeJSON(w, http.StatusCreated, f)
}

// GetFlow returns the current state of a workflow.
func GetFlow(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// BeginIdentify moves an idle flow into scan or search mode.
func BeginIdentify(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	var req struct {
		Mode string `json:"mode"` // "scan" or "search"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	phase := flow.PhaseScanning
	if req.Mode == "search" {
		phase = flow.PhaseSearching
	}
	if err := f.BeginIdentify(phase); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// IdentifyEquipment resolves the scanned or selected code against the master
// data and loads the scheduled activities.
func IdentifyEquipment(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := f.Identify(r.Context(), resolver(), strings.TrimSpace(req.Code)); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// SearchAssets lists master assets matching a free-text query, for the manual
// search screen.
func SearchAssets(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var assets []models.AssetMaster
	tx := config.DB.WithContext(r.Context()).Order("code ASC").Limit(50)
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("code ILIKE ? OR name ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if err := tx.Find(&assets).Error; err != nil {
		http.Error(w, "asset search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// ChooseActivity picks a scheduled activity (or a general inspection when the
// code is empty) and provisions the checklist.
func ChooseActivity(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := f.ChooseActivity(r.Context(), provisioner(), req.Code); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// UpdateChecklistItem sets the status/comment of one live item and reports the
// updated completion numbers.
func UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	var req struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	itemID := mux.Vars(r)["itemId"]
	if err := f.UpdateItem(itemID, req.Status, req.Comment); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress":        f.Progress(),
		"incompleteCount": f.IncompleteCount(),
	})
}

// AttachItemMedia stores a photo or video on a live item. The bytes stay in
// memory until submission uploads them.
func AttachItemMedia(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	kind := r.FormValue("kind")
	limit := int64(maxPhotoBytes)
	if kind == "video" {
		limit = maxVideoBytes
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		http.Error(w, "could not parse form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > limit {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	if ext == "" {
		ext = "jpg"
		if kind == "video" {
			ext = "mp4"
		}
	}

	itemID := mux.Vars(r)["itemId"]
	media := &checklist.Media{Data: data, Ext: strings.ToLower(ext)}
	if err := f.AttachMedia(itemID, kind, media); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "attached"})
}

// SubmitFlow runs the submission pipeline for a completed checklist.
func SubmitFlow(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	code, err := f.Submit(r.Context(), pipeline().Submit)
	if err != nil {
		if errors.Is(err, flow.ErrChecklistIncomplete) || errors.Is(err, flow.ErrInvalidTransition) {
			flowError(w, err)
			return
		}
		// Pipeline failure: the flow stays in its failed sub-state for retry.
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": err.Error(),
			"flow":  f,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trackingCode": code,
		"flow":         f,
	})
}

// FlowBack cancels the current step.
func FlowBack(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	if err := f.Back(); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DismissFlow leaves the success screen and resets the workflow.
func DismissFlow(w http.ResponseWriter, r *http.Request) {
	f := flowFromRequest(w, r)
	if f == nil {
		return
	}
	if err := f.Dismiss(); err != nil {
		flowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func flowFromRequest(w http.ResponseWriter, r *http.Request) *flow.Flow {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid flow id", http.StatusBadRequest)
		return nil
	}
	f := flows.Get(id)
	if f == nil {
		http.Error(w, "flow not found", http.StatusNotFound)
		return nil
	}
	return f
}

// flowError maps engine errors onto HTTP statuses.
func flowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flow.ErrEquipmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, flow.ErrNoScheduledActivity):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, flow.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, flow.ErrChecklistIncomplete):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, flow.ErrUnknownItem):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
