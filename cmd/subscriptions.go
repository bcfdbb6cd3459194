package cmd

import (
	"context"

	"rewards/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	balanceChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_balance_changes_total",
			Help: "Committed balance mutations by transaction source",
		},
		[]string{"source"},
	)

	withdrawalsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_withdrawals_processed_total",
			Help: "Admin withdrawal decisions by outcome",
		},
		[]string{"outcome"},
	)
)

// registerEventSubscriptions registers all cross-cutting event handlers.
// Every committed ledger mutation lands in the audit log and the balance
// metrics; withdrawal decisions and fraud-status changes get their own
// audit entries.
func registerEventSubscriptions(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		balanceChangesTotal.WithLabelValues(string(e.Source)).Inc()
		log.WithFields(log.Fields{
			"userId":     e.UserID,
			"source":     e.Source,
			"amount":     e.ChangeAmount,
			"newBalance": e.NewBalance,
		}).Info("Balance changed")
	})

	bus.Subscribe(events.EventTypeWithdrawalProcessed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.WithdrawalProcessedEvent)
		if !ok {
			return
		}
		outcome := "rejected"
		if e.Approved {
			outcome = "approved"
		}
		withdrawalsProcessedTotal.WithLabelValues(outcome).Inc()
		log.WithFields(log.Fields{
			"requestId": e.RequestID,
			"userId":    e.UserID,
			"points":    e.Points,
			"outcome":   outcome,
		}).Info("Withdrawal decision recorded")
	})

	bus.Subscribe(events.EventTypeFraudStatusChanged, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.FraudStatusChangedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"userId":    e.UserID,
			"oldStatus": e.OldStatus,
			"newStatus": e.NewStatus,
			"adminId":   e.AdminID,
		}).Warn("Fraud status changed by admin")
	})
}
