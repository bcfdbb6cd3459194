package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP surface. Postbacks and registration are
// unauthenticated; everything else under /api/v1 requires a bearer token,
// and the admin subrouter additionally requires the admin role.
func NewRouter(h *Handler, verifier SessionVerifier) *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware, loggingMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := r.PathPrefix("/api/v1").Subrouter()

	// Network-facing and registration endpoints, no session required
	apiV1.HandleFunc("/postbacks/cpx", h.PostbackCPX).Methods("GET")
	apiV1.HandleFunc("/postbacks/lootably", h.PostbackLootably).Methods("GET")
	apiV1.HandleFunc("/users", h.Register).Methods("POST")
	apiV1.HandleFunc("/auth/login", h.Login).Methods("POST")

	authed := apiV1.NewRoute().Subrouter()
	authed.Use(authMiddleware(verifier))
	authed.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	authed.HandleFunc("/balance", h.GetBalance).Methods("GET")
	authed.HandleFunc("/transactions", h.GetTransactions).Methods("GET")
	authed.HandleFunc("/bonus/daily", h.ClaimDailyBonus).Methods("POST")
	authed.HandleFunc("/withdrawals", h.CreateWithdrawal).Methods("POST")
	authed.HandleFunc("/withdrawals", h.ListWithdrawals).Methods("GET")

	admin := apiV1.NewRoute().Subrouter()
	admin.Use(authMiddleware(verifier), adminMiddleware)
	admin.HandleFunc("/withdrawals/{id:[0-9]+}", h.ProcessWithdrawal).Methods("POST")
	admin.HandleFunc("/users", h.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}", h.GetUserDetail).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}/status", h.SetUserStatus).Methods("POST")
	admin.HandleFunc("/admin/settings", h.GetSettings).Methods("GET")
	admin.HandleFunc("/admin/settings", h.UpdateSettings).Methods("PUT")

	return r
}
