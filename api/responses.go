package api

import (
	"time"

	"rewards/models"
)

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	FraudStatus string `json:"fraudStatus"`
	CreatedAt   string `json:"createdAt"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		FraudStatus: string(u.FraudStatus),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type userDetailResponse struct {
	userResponse
	ActiveFlags      []flagResponse `json:"activeFlags"`
	TransactionCount int64          `json:"transactionCount"`
}

type flagResponse struct {
	FlagType  string `json:"flagType"`
	CreatedAt string `json:"createdAt"`
}

type balanceResponse struct {
	UserID         int64 `json:"userId"`
	Available      int64 `json:"available"`
	LifetimeEarned int64 `json:"lifetimeEarned"`
}

func newBalanceResponse(b *models.Balance) balanceResponse {
	return balanceResponse{
		UserID:         b.UserID,
		Available:      b.Available,
		LifetimeEarned: b.LifetimeEarned,
	}
}

type transactionResponse struct {
	ID            int64  `json:"id"`
	Amount        int64  `json:"amount"`
	Source        string `json:"source"`
	BalanceBefore int64  `json:"balanceBefore"`
	BalanceAfter  int64  `json:"balanceAfter"`
	CreatedAt     string `json:"createdAt"`
}

func newTransactionResponse(e *models.TransactionLogEntry) transactionResponse {
	return transactionResponse{
		ID:            e.ID,
		Amount:        e.Amount,
		Source:        string(e.Source),
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type withdrawalResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	Points      int64   `json:"points"`
	CashCents   int64   `json:"cashCents"`
	Method      string  `json:"method"`
	Address     string  `json:"address"`
	Status      string  `json:"status"`
	RequestedAt string  `json:"requestedAt"`
	ProcessedAt *string `json:"processedAt"`
}

func newWithdrawalResponse(w *models.WithdrawalRequest) withdrawalResponse {
	resp := withdrawalResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		Points:      w.Points,
		CashCents:   w.CashCents,
		Method:      w.Method,
		Address:     w.Address,
		Status:      string(w.Status),
		RequestedAt: w.RequestedAt.UTC().Format(time.RFC3339),
	}
	if w.ProcessedAt != nil {
		s := w.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

func newWithdrawalListResponse(requests []*models.WithdrawalRequest) []withdrawalResponse {
	out := make([]withdrawalResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, newWithdrawalResponse(req))
	}
	return out
}

type settingsResponse struct {
	ExchangeRate        int64 `json:"exchangeRate"`
	MinWithdrawalPoints int64 `json:"minWithdrawalPoints"`
	DailyBonusPoints    int64 `json:"dailyBonusPoints"`
}

func newSettingsResponse(s *models.PlatformSettings) settingsResponse {
	return settingsResponse{
		ExchangeRate:        s.ExchangeRate,
		MinWithdrawalPoints: s.MinWithdrawalPoints,
		DailyBonusPoints:    s.DailyBonusPoints,
	}
}
