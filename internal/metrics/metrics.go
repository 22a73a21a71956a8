package metrics

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skilllink"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_published_total",
			Help:      "Realtime events published by type.",
		},
		[]string{"type"},
	)

	eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_dropped_total",
		Help:      "Events dropped because a subscriber buffer was full.",
	})

	activeSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_active_subscriptions",
		Help:      "Open realtime subscriptions.",
	})

	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_sent_total",
		Help:      "Chat messages persisted.",
	})

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changes_total",
			Help:      "Booking status writes by target status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, eventsPublished, eventsDropped, activeSubscriptions, messagesSent, bookingTransitions)
	})
}

// Handler serves the default registry for fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func EventPublished(typ string) {
	eventsPublished.WithLabelValues(typ).Inc()
}

func EventDropped() {
	eventsDropped.Inc()
}

func SubscriptionOpened() {
	activeSubscriptions.Inc()
}

func SubscriptionClosed() {
	activeSubscriptions.Dec()
}

func MessageSent() {
	messagesSent.Inc()
}

func BookingStatusChanged(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}
