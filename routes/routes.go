package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mechanicalh600-lang/CheckList/handlers"
	"github.com/mechanicalh600-lang/CheckList/middleware"
)

// reportRoles may read cross-inspector reports and manage report statuses.
var reportRoles = []string{"admin", "manager", "cm", "technical"}

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/me", handlers.GetCurrentUser).Methods("GET")
	api.HandleFunc("/assets", handlers.SearchAssets).Methods("GET")

	registerFlowRoutes(api)
	registerHistoryRoutes(api)
	registerReportRoutes(api)

	return r
}

// registerFlowRoutes wires the capture workflow endpoints.
func registerFlowRoutes(api *mux.Router) {
	api.HandleFunc("/flows", handlers.StartFlow).Methods("POST")
	api.HandleFunc("/flows/{id}", handlers.GetFlow).Methods("GET")
	api.HandleFunc("/flows/{id}/identify", handlers.BeginIdentify).Methods("POST")
	api.HandleFunc("/flows/{id}/equipment", handlers.IdentifyEquipment).Methods("POST")
	api.HandleFunc("/flows/{id}/activity", handlers.ChooseActivity).Methods("POST")
	api.HandleFunc("/flows/{id}/items/{itemId}", handlers.UpdateChecklistItem).Methods("PUT")
	api.HandleFunc("/flows/{id}/items/{itemId}/media", handlers.AttachItemMedia).Methods("POST")
	api.HandleFunc("/flows/{id}/submit", handlers.SubmitFlow).Methods("POST")
	api.HandleFunc("/flows/{id}/back", handlers.FlowBack).Methods("POST")
	api.HandleFunc("/flows/{id}/dismiss", handlers.DismissFlow).Methods("POST")
}

// registerHistoryRoutes wires the read side every authenticated user gets;
// scoping to the requester's own records happens in the handlers.
func registerHistoryRoutes(api *mux.Router) {
	api.HandleFunc("/inspections", handlers.GetInspections).Methods("GET")
	api.HandleFunc("/inspections/details", handlers.GetInspectionDetails).Methods("POST")
}

// registerReportRoutes wires the dashboard, export and status management
// endpoints reserved for report roles.
func registerReportRoutes(api *mux.Router) {
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Handle("/full", middleware.RequireRole(reportRoles,
		http.HandlerFunc(handlers.GetFullReport))).Methods("GET")
	reports.Handle("/top-failures", middleware.RequireRole(reportRoles,
		http.HandlerFunc(handlers.GetTopFailures))).Methods("GET")
	reports.Handle("/export/excel", middleware.RequireRole(reportRoles,
		http.HandlerFunc(handlers.ExportInspectionsToExcel))).Methods("GET")
	reports.Handle("/export/csv", middleware.RequireRole(reportRoles,
		http.HandlerFunc(handlers.ExportInspectionsToCSV))).Methods("GET")

	api.Handle("/inspections/{id}/status", middleware.RequireRole(reportRoles,
		http.HandlerFunc(handlers.UpdateInspectionStatus))).Methods("PUT")
}
