package api

import (
	"net/http"
	"strconv"

	"rewards/models"

	"github.com/gorilla/mux"
)

type withdrawalRequestBody struct {
	PointsAmount   int64  `json:"pointsAmount"`
	PaymentMethod  string `json:"paymentMethod"`
	PaymentAddress string `json:"paymentAddress"`
}

// CreateWithdrawal handles POST /api/v1/withdrawals
func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var body withdrawalRequestBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	req, err := h.withdrawals.RequestWithdrawal(r.Context(), user.ID, body.PointsAmount, body.PaymentMethod, body.PaymentAddress)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newWithdrawalResponse(req))
}

// ListWithdrawals handles GET /api/v1/withdrawals. Regular users see their
// own requests; admins see all, optionally filtered by ?status=.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	limit := queryLimit(r, 50)

	if !user.IsAdmin() {
		requests, err := h.withdrawals.GetUserWithdrawals(r.Context(), user.ID, limit)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, newWithdrawalListResponse(requests))
		return
	}

	var status *models.WithdrawalStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed := models.WithdrawalStatus(s)
		switch parsed {
		case models.WithdrawalStatusPending, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected:
			status = &parsed
		default:
			respondWithError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	requests, err := h.withdrawals.ListWithdrawals(r.Context(), status, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newWithdrawalListResponse(requests))
}

type processWithdrawalBody struct {
	Action string `json:"action"`
}

// ProcessWithdrawal handles POST /api/v1/withdrawals/{id} (admin)
func (h *Handler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin := userFrom(r)

	requestID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || requestID <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body processWithdrawalBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	req, err := h.withdrawals.ProcessWithdrawal(r.Context(), requestID, models.WithdrawalAction(body.Action), admin.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newWithdrawalResponse(req))
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
