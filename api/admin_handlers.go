package api

import (
	"net/http"
	"strconv"
	"time"

	"rewards/models"

	"github.com/gorilla/mux"
)

// GetUserDetail handles GET /api/v1/users/{id} (admin)
func (h *Handler) GetUserDetail(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || userID <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	detail, err := h.users.GetUserDetail(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := userDetailResponse{
		userResponse:     newUserResponse(detail.User),
		ActiveFlags:      make([]flagResponse, 0, len(detail.Flags)),
		TransactionCount: detail.TransactionCount,
	}
	for _, f := range detail.Flags {
		resp.ActiveFlags = append(resp.ActiveFlags, flagResponse{
			FlagType:  string(f.FlagType),
			CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// ListUsers handles GET /api/v1/users (admin)
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	respondWithJSON(w, http.StatusOK, out)
}

type userStatusBody struct {
	Action string `json:"action"`
}

// SetUserStatus handles POST /api/v1/users/{id}/status (admin). Actions map
// onto fraud statuses: ban, unban (back to clean), whitelist.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	admin := userFrom(r)

	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || userID <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var body userStatusBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	var status models.FraudStatus
	switch body.Action {
	case "ban":
		status = models.FraudStatusBanned
	case "unban":
		status = models.FraudStatusClean
	case "whitelist":
		status = models.FraudStatusWhitelisted
	default:
		respondWithError(w, http.StatusBadRequest, "invalid action")
		return
	}

	user, err := h.users.SetFraudStatus(r.Context(), userID, status, admin.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserResponse(user))
}

// GetSettings handles GET /api/v1/admin/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSettingsResponse(settings))
}

type updateSettingsBody struct {
	ExchangeRate        *int64 `json:"exchangeRate"`
	MinWithdrawalPoints *int64 `json:"minWithdrawalPoints"`
	DailyBonusPoints    *int64 `json:"dailyBonusPoints"`
}

// UpdateSettings handles PUT /api/v1/admin/settings. Absent fields keep
// their current values.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body updateSettingsBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	settings, err := h.settings.Update(r.Context(), body.ExchangeRate, body.MinWithdrawalPoints, body.DailyBonusPoints)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSettingsResponse(settings))
}
