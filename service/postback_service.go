package service

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"rewards/events"
	"rewards/models"

	log "github.com/sirupsen/logrus"
)

// cpxApprovedStatus is the only CPX status value that results in a credit.
// Anything else (held, reversed) is acknowledged and dropped so the network
// stops retrying.
const cpxApprovedStatus = "1"

// CPXParams are the raw query parameters of a CPX-style postback
type CPXParams struct {
	UserID      string
	RewardLocal string
	TransID     string
	Hash        string
	Status      string
}

// LootablyParams are the raw query parameters of a Lootably-style postback
type LootablyParams struct {
	UserID  string
	Amount  string
	TransID string
	Secret  string
}

// PostbackResult reports the outcome of an accepted postback. Ignored means
// the delivery authenticated but was deliberately dropped (unapproved
// status, banned user): the caller must still acknowledge it upstream.
type PostbackResult struct {
	Entry   *models.TransactionLogEntry
	Ignored bool
	Reason  string
}

// PostbackService validates and credits reward notifications from
// survey/offer networks
type PostbackService interface {
	// ProcessCPX handles a CPX-style postback (MD5 hash authentication,
	// status field)
	ProcessCPX(ctx context.Context, params CPXParams) (*PostbackResult, error)

	// ProcessLootably handles a Lootably-style postback (shared secret
	// authentication)
	ProcessLootably(ctx context.Context, params LootablyParams) (*PostbackResult, error)
}

// PostbackSecrets holds the per-network shared secrets
type PostbackSecrets struct {
	CPX      string
	Lootably string
}

// postbackService implements the PostbackService interface
type postbackService struct {
	uowFactory UnitOfWorkFactory
	secrets    PostbackSecrets
}

// NewPostbackService creates a new postback service
func NewPostbackService(uowFactory UnitOfWorkFactory, secrets PostbackSecrets) PostbackService {
	return &postbackService{
		uowFactory: uowFactory,
		secrets:    secrets,
	}
}

// ProcessCPX validates and credits a CPX-style postback. Order matters:
// authenticity first, then the status filter, then parameter validation,
// then the ledger. A failed signature must never reveal whether the other
// parameters would have been acceptable.
func (s *postbackService) ProcessCPX(ctx context.Context, params CPXParams) (*PostbackResult, error) {
	expected := md5.Sum([]byte(params.UserID + "-" + s.secrets.CPX))
	expectedHex := hex.EncodeToString(expected[:])
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(params.Hash)), []byte(expectedHex)) != 1 {
		return nil, ErrInvalidSignature
	}

	if params.Status != cpxApprovedStatus {
		log.WithFields(log.Fields{
			"network": "cpx",
			"transId": params.TransID,
			"status":  params.Status,
		}).Info("Ignoring postback with unapproved status")
		return &PostbackResult{Ignored: true, Reason: "status not approved"}, nil
	}

	return s.credit(ctx, models.SourceSurveyNetwork, params.UserID, params.RewardLocal, params.TransID)
}

// ProcessLootably validates and credits a Lootably-style postback
func (s *postbackService) ProcessLootably(ctx context.Context, params LootablyParams) (*PostbackResult, error) {
	if subtle.ConstantTimeCompare([]byte(params.Secret), []byte(s.secrets.Lootably)) != 1 {
		return nil, ErrInvalidSignature
	}

	return s.credit(ctx, models.SourceOfferNetwork, params.UserID, params.Amount, params.TransID)
}

// credit runs the shared tail of the pipeline: parameter validation, the
// fraud gate, then the idempotent ledger credit.
func (s *postbackService) credit(ctx context.Context, network models.TransactionSource, userIDStr, amountStr, transID string) (*PostbackResult, error) {
	if transID == "" {
		return nil, ErrInvalidParameters
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidParameters
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || amount <= 0 {
		return nil, ErrInvalidParameters
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidParameters
	}
	if !user.CanEarn() {
		// Acknowledge and drop: a 4xx would make the network retry a
		// delivery that will never be accepted.
		log.WithFields(log.Fields{
			"network": network,
			"userId":  userID,
			"transId": transID,
		}).Warn("Ignoring postback for banned user")
		return &PostbackResult{Ignored: true, Reason: "user banned"}, nil
	}

	externalID := string(network) + ":" + transID
	entry, err := applyLedgerDelta(ctx, uow, userID, amount, network, &externalID, map[string]any{
		"trans_id": transID,
	})
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.PostbackCreditedEvent{
		UserID:     userID,
		Network:    network,
		Amount:     amount,
		ExternalID: externalID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"network": network,
		"userId":  userID,
		"amount":  amount,
		"transId": transID,
	}).Info("Postback credited")

	return &PostbackResult{Entry: entry}, nil
}
