package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"rewards/models"
	"rewards/service"

	log "github.com/sirupsen/logrus"
)

// SessionVerifier resolves a bearer token to its user. The auth middleware
// is the only consumer; handlers read the user from the request context.
type SessionVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// SessionAuthority issues and revokes tokens on top of verification.
// Satisfied by service.SessionService.
type SessionAuthority interface {
	SessionVerifier
	IssueToken(ctx context.Context, userID int64) (string, error)
	RevokeToken(ctx context.Context, token string) error
}

// Handler holds the service dependencies for all HTTP endpoints
type Handler struct {
	ledger      service.LedgerService
	withdrawals service.WithdrawalService
	users       service.UserService
	settings    service.SettingsService
	postbacks   service.PostbackService
	sessions    SessionAuthority
}

// NewHandler creates a new HTTP handler
func NewHandler(
	ledger service.LedgerService,
	withdrawals service.WithdrawalService,
	users service.UserService,
	settings service.SettingsService,
	postbacks service.PostbackService,
	sessions SessionAuthority,
) *Handler {
	return &Handler{
		ledger:      ledger,
		withdrawals: withdrawals,
		users:       users,
		settings:    settings,
		postbacks:   postbacks,
		sessions:    sessions,
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondServiceError translates a business-rule error into its HTTP status.
// Anything outside the sentinel taxonomy is logged and hidden behind a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidParameters),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrPendingRequestExists),
		errors.Is(err, service.ErrRateLimited),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrUsernameTaken):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrWithdrawalNotAllowed),
		errors.Is(err, service.ErrUserBanned):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateTransaction):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("Unhandled error in HTTP handler")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}
