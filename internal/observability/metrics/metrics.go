package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of primary-credential login attempts.",
		},
		[]string{"service", "result"},
	)

	SecondFactorAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_second_factor_attempts_total",
			Help: "Total number of second-factor verification attempts.",
		},
		[]string{"service", "kind", "result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued or refreshed.",
		},
		[]string{"service", "flow", "result"},
	)

	PermissionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_permission_checks_total",
			Help: "Total number of permission evaluator decisions.",
		},
		[]string{"service", "evaluator", "decision"},
	)

	SessionsPurgedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_purged_total",
			Help: "Total number of dead sessions removed by the purge job.",
		},
		[]string{"service"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	AuthLoginsTotal = AuthLoginsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SecondFactorAttemptsTotal = SecondFactorAttemptsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	TokensIssuedTotal = TokensIssuedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	PermissionChecksTotal = PermissionChecksTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SessionsPurgedTotal = SessionsPurgedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		AuthLoginsTotal,
		SecondFactorAttemptsTotal,
		TokensIssuedTotal,
		PermissionChecksTotal,
		SessionsPurgedTotal,
	)
}
