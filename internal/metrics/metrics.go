// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wifi"

// Collectors groups every metric the panel exports.
type Collectors struct {
	SessionsActive prometheus.Gauge
	Logins         *prometheus.CounterVec
	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Observer
	Directives     *prometheus.CounterVec
	MailsSent      *prometheus.CounterVec
	Events         *prometheus.CounterVec
	RemoteAdmin    *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	RateLimited    prometheus.Counter
	DBConnections  *prometheus.GaugeVec
	DBWaitCount    prometheus.Gauge
	DBPingFailures prometheus.Counter
}

var (
	once sync.Once
	inst *Collectors
)

// Get returns the registered collectors, creating them on first use.
func Get() *Collectors {
	once.Do(func() {
		inst = newCollectors()
	})
	return inst
}

func newCollectors() *Collectors {
	return &Collectors{
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Web sessions currently held by the session table",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts, labeled by result",
		}, []string{"result"}),
		Renders: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "template",
			Name:      "renders_total",
			Help:      "Page renders, labeled by top-level template file",
		}, []string{"file"}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "template",
			Name:      "render_duration_seconds",
			Help:      "Duration of top-level page renders",
			Buckets:   prometheus.DefBuckets,
		}),
		Directives: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "template",
			Name:      "unresolved_directives_total",
			Help:      "Directives that resolved to the empty string, labeled by kind",
		}, []string{"kind"}),
		MailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound mails, labeled by result",
		}, []string{"result"}),
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Script events published, labeled by channel",
		}, []string{"channel"}),
		RemoteAdmin: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remoteadmin",
			Name:      "calls_total",
			Help:      "Simulator remote admin calls, labeled by method and result",
		}, []string{"method", "result"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, labeled by method and status class",
		}, []string{"method", "status"}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the login rate limiter",
		}),
		DBConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connections",
			Help:      "Database pool connections, labeled by state",
		}, []string{"state"}),
		DBWaitCount: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "wait_count",
			Help:      "Connections waited for since the pool opened",
		}),
		DBPingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "ping_failures_total",
			Help:      "Failed database health checks",
		}),
	}
}

// Result maps an error to a "success"/"failure" label.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
