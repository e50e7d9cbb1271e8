// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Incoming Telegram updates by kind (message/callback/command).",
		},
		[]string{"kind"},
	)

	gateChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_checks_total",
			Help: "Access-gate verifications by verdict (joined/not_joined).",
		},
		[]string{"verdict"},
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption attempts by verdict.",
		},
		[]string{"verdict"},
	)

	codesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redeem_codes_created_total",
			Help: "Code-creation attempts by verdict.",
		},
		[]string{"verdict"},
	)

	broadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Broadcast delivery attempts by result (sent/failed).",
		},
		[]string{"result"},
	)

	adminAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_api_requests_total",
			Help: "Admin API requests by route and status class.",
		},
		[]string{"route", "status"},
	)

	ledgerUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_users",
		Help: "Known users in the ledger.",
	})
	ledgerCodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_redeem_codes",
		Help: "Redeem codes in the ledger.",
	})
	ledgerRedemptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_redemptions",
		Help: "Redemption rows in the ledger.",
	})
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			updatesTotal, gateChecks, redemptionsTotal, codesCreated,
			broadcastDeliveries, adminAPIRequests,
			ledgerUsers, ledgerCodes, ledgerRedemptions,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncUpdate(kind string) { updatesTotal.WithLabelValues(norm(kind)).Inc() }

func IncGateCheck(joined bool) {
	verdict := "not_joined"
	if joined {
		verdict = "joined"
	}
	gateChecks.WithLabelValues(verdict).Inc()
}

func IncRedemption(verdict string) { redemptionsTotal.WithLabelValues(norm(verdict)).Inc() }

func IncCodeCreated(verdict string) { codesCreated.WithLabelValues(norm(verdict)).Inc() }

func IncBroadcastDelivery(ok bool) {
	result := "failed"
	if ok {
		result = "sent"
	}
	broadcastDeliveries.WithLabelValues(result).Inc()
}

func IncAdminAPIRequest(route, status string) {
	adminAPIRequests.WithLabelValues(norm(route), norm(status)).Inc()
}

func SetLedgerTotals(users, codes, redemptions int) {
	ledgerUsers.Set(float64(users))
	ledgerCodes.Set(float64(codes))
	ledgerRedemptions.Set(float64(redemptions))
}
