package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "callback_events_total",
		Help: "Количество входящих событий Callback API по типам",
	}, []string{"type"})

	DispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatched_commands_total",
		Help: "Количество выполненных команд по тегам",
	}, []string{"command"})

	StaleEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stale_events_total",
		Help: "События, отброшенные по метке времени",
	})

	DeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admin_denied_total",
		Help: "Отказы в доступе к админским командам",
	})

	HandlerSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "handler_seconds",
		Help:    "Время выполнения обработчика команды",
		Buckets: prometheus.DefBuckets,
	})

	BroadcastChunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_chunks_total",
		Help: "Отправленные пачки рассылки",
	})

	SendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vk_send_errors_total",
		Help: "Ошибки отправки сообщений",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		EventsTotal,
		DispatchedTotal,
		StaleEventsTotal,
		DeniedTotal,
		HandlerSeconds,
		BroadcastChunksTotal,
		SendErrorsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}
