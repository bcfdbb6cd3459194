package api

import (
	"net/http"

	"rewards/service"
)

// PostbackCPX handles GET /api/v1/postbacks/cpx. The network retries any
// non-2xx response, so deliberately dropped deliveries (unapproved status,
// banned user) still answer 200.
func (h *Handler) PostbackCPX(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.CPXParams{
		UserID:      q.Get("user_id"),
		RewardLocal: q.Get("reward_local"),
		TransID:     q.Get("trans_id"),
		Hash:        q.Get("hash"),
		Status:      q.Get("status"),
	}

	result, err := h.postbacks.ProcessCPX(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Ignored {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": result.Reason})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "credited",
		"entry":  newTransactionResponse(result.Entry),
	})
}

// PostbackLootably handles GET /api/v1/postbacks/lootably
func (h *Handler) PostbackLootably(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.LootablyParams{
		UserID:  q.Get("user_id"),
		Amount:  q.Get("amount"),
		TransID: q.Get("trans_id"),
		Secret:  q.Get("secret"),
	}

	result, err := h.postbacks.ProcessLootably(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Ignored {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": result.Reason})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "credited",
		"entry":  newTransactionResponse(result.Entry),
	})
}
