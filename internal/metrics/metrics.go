package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sehaty_payments_total",
		Help: "Payment attempts by method and outcome",
	}, []string{"method", "outcome"})

	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sehaty_booking_transitions_total",
		Help: "Booking state transitions by kind and resulting status",
	}, []string{"kind", "status"})

	NotificationsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sehaty_notifications_delivered_total",
		Help: "Notification events delivered to subscribers",
	})

	LedgerDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sehaty_ledger_drift_total",
		Help: "Reconciliation failures between wallet balance and ledger sum",
	})
)
