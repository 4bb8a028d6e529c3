package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: входящие вебхуки по типу коллбэка
	WebhooksTotal *prometheus.CounterVec

	// Решения менеджеров по исходу (approved/rejected)
	DecisionsTotal *prometheus.CounterVec

	// Повторные клики, отброшенные guard'ом "уже решено"
	DuplicateDecisions prometheus.Counter

	// Отказы подписи на воротах
	AuthFailures prometheus.Counter

	// Битые сабмиты формы и битые токены кнопок
	MalformedSubmissions prometheus.Counter
	TokenDecodeFailures  prometheus.Counter

	// Ошибки вызовов Slack Web API по методам
	SlackAPIErrors *prometheus.CounterVec

	// Latency обработчиков вебхуков
	HandlerDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		WebhooksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leavebot_webhooks_total",
			Help: "Total number of inbound Slack webhooks.",
		}, []string{"callback_type"}),

		DecisionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leavebot_decisions_total",
			Help: "Total number of applied leave decisions.",
		}, []string{"outcome"}),

		DuplicateDecisions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leavebot_duplicate_decisions_total",
			Help: "Decision callbacks dropped because the message was already decided.",
		}),

		AuthFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leavebot_auth_failures_total",
			Help: "Webhooks rejected by the request signature gate.",
		}),

		MalformedSubmissions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leavebot_malformed_submissions_total",
			Help: "Form submissions rejected by validation.",
		}),

		TokenDecodeFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leavebot_token_decode_failures_total",
			Help: "Button tokens that failed to decode.",
		}),

		SlackAPIErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leavebot_slack_api_errors_total",
			Help: "Failed Slack Web API calls by method.",
		}, []string{"method"}),

		HandlerDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leavebot_handler_duration_seconds",
			Help:    "Histogram of webhook handler latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"handler"}),
	}
}
