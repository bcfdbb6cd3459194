package api

import (
	"net/http"
)

type registerBody struct {
	Username string `json:"username"`
}

// Register handles POST /api/v1/users: creates the account, credits the
// signup bonus, and returns a session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	user, err := h.users.Register(r.Context(), body.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.sessions.IssueToken(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  newUserResponse(user),
		"token": token,
	})
}

type loginBody struct {
	Username string `json:"username"`
}

// Login handles POST /api/v1/auth/login: exchanges a username for a fresh
// session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeJSONBody(w, r, &body) {
		return
	}

	user, err := h.users.Login(r.Context(), body.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := h.sessions.IssueToken(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":  newUserResponse(user),
		"token": token,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.RevokeToken(r.Context(), bearerToken(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetBalance handles GET /api/v1/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	balance, err := h.ledger.GetBalance(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newBalanceResponse(balance))
}

// GetTransactions handles GET /api/v1/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	entries, err := h.ledger.GetTransactions(r.Context(), user.ID, queryLimit(r, 50))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newTransactionResponse(e))
	}
	respondWithJSON(w, http.StatusOK, out)
}

// ClaimDailyBonus handles POST /api/v1/bonus/daily. A repeat claim on the
// same UTC day answers 409.
func (h *Handler) ClaimDailyBonus(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	entry, err := h.ledger.ClaimDailyBonus(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newTransactionResponse(entry))
}
