package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// NotificationEmitFailures counts swallowed notification persistence
	// failures by notification type. These never fail the triggering request,
	// so the counter is the only operational signal.
	NotificationEmitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_notification_emit_failures_total",
		Help: "Total number of notification emissions that failed and were swallowed",
	}, []string{"type"})

	// MailSendFailures counts best-effort outbound email failures.
	MailSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atelier_mail_send_failures_total",
		Help: "Total number of outbound emails that failed to send",
	})

	// OrderTransitions counts applied order status transitions.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_order_transitions_total",
		Help: "Total number of order status transitions by target status",
	}, []string{"status"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level Prometheus middleware handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
