package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	RefreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Total number of refresh token rotations by outcome",
		},
		[]string{"outcome"},
	)

	LogoutCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logout_total",
			Help: "Total number of logouts by outcome",
		},
		[]string{"outcome"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_credentials", "tenant_mismatch", "token_blacklisted" etc.
	)

	// Tenant resolution outcomes: "none", "resolved", "not_found", "error"
	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tenant_resolution_total",
			Help: "Total number of tenant resolutions by outcome",
		},
		[]string{"outcome"},
	)

	BlacklistPurgedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_blacklist_purged_total",
			Help: "Total number of expired blacklist entries removed",
		},
	)
)

// Histogram metrics
var (
	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_info",
			Help: "Information about the authentication service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(RefreshCounter)
	prometheus.MustRegister(LogoutCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantResolutionCounter)
	prometheus.MustRegister(BlacklistPurgedCounter)

	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// TrackDBOperation measures database operation durations.
// Call the returned func when the operation finishes.
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordLogin records a login attempt outcome
func RecordLogin(outcome string) {
	LoginCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordRegister records a registration attempt outcome
func RecordRegister(outcome string) {
	RegisterCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordRefresh records a refresh attempt outcome
func RecordRefresh(outcome string) {
	RefreshCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordLogout records a logout outcome
func RecordLogout(outcome string) {
	LogoutCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantResolution records the outcome of resolving a request host
func RecordTenantResolution(outcome string) {
	TenantResolutionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
