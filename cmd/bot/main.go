package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vk-concert-bot/internal/adapters/bot"
	"vk-concert-bot/internal/adapters/calendar"
	"vk-concert-bot/internal/adapters/repo"
	"vk-concert-bot/internal/adapters/vk"
	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/config"
	"vk-concert-bot/internal/infra/db"
	infrahttp "vk-concert-bot/internal/infra/http"
	"vk-concert-bot/internal/infra/log"
	"vk-concert-bot/internal/infra/metrics"
	"vk-concert-bot/internal/infra/queue"
	"vk-concert-bot/internal/usecase/drawings"
	"vk-concert-bot/internal/usecase/poster"
	"vk-concert-bot/internal/usecase/subscriptions"
)

const managerRefreshInterval = 15 * time.Minute

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("неизвестный часовой пояс")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repoAdapter := repo.NewPostgres(pool)
	vkClient := vk.NewClient(vk.Config{
		Token:      cfg.VK.Token,
		GroupID:    cfg.VK.GroupID,
		APIVersion: cfg.VK.APIVersion,
		ChunkSize:  cfg.Limits.SendChunk,
		ChunkDelay: time.Duration(cfg.Limits.SendDelayMS) * time.Millisecond,
	}, logger)
	calendarClient := calendar.NewClient(cfg.Calendar.ID, cfg.Calendar.APIKey)

	broadcastQueue, closeQueue, err := buildQueue(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать очередь рассылок")
	}
	defer closeQueue()

	managers := bot.NewManagerSet(vkClient)
	if err := managers.Refresh(ctx); err != nil {
		logger.Error().Err(err).Msg("не удалось загрузить руководителей при старте")
	}
	go refreshManagers(ctx, logger, managers)

	posterService := poster.NewService(calendarClient, loc)
	drawingService := drawings.NewService(repoAdapter)
	subscriptionService := subscriptions.NewService(repoAdapter, broadcastQueue)

	dispatcher := bot.NewDispatcher(
		logger,
		repoAdapter,
		repoAdapter,
		vkClient,
		posterService,
		drawingService,
		subscriptionService,
		managers,
	)
	dispatcher.SetProfileSource(vkClient)

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, fmt.Sprintf(":%d", cfg.MetricsPort))

	srv := infrahttp.NewServer(logger)
	srv.Router.Post("/callback", callbackHandler(logger, cfg, dispatcher))
	srv.Router.Get("/concerts", concertsHandler(logger, posterService, loc))

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бота")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// callbackHandler принимает события Callback API. Ответ всегда 200: любой
// другой статус заставляет VK доставлять событие повторно.
func callbackHandler(logger zerolog.Logger, cfg config.AppConfig, dispatcher *bot.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event bot.CallbackEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			logger.Error().Err(err).Msg("не удалось разобрать событие")
			writeOK(w)
			return
		}
		if cfg.VK.Secret != "" && event.Secret != cfg.VK.Secret {
			logger.Warn().Str("type", event.Type).Msg("событие с неверным секретом отброшено")
			writeOK(w)
			return
		}
		if event.Type == bot.EventConfirmation {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cfg.VK.Confirmation))
			return
		}
		dispatcher.HandleEvent(r.Context(), event)
		writeOK(w)
	}
}

// concertsHandler отдаёт текстовую афишу на ближайшую неделю.
func concertsHandler(logger zerolog.Logger, posterService *poster.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().In(loc)
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		listing, err := posterService.WeekListing(r.Context(), dayStart)
		if err != nil {
			logger.Error().Err(err).Msg("не удалось получить афишу")
			http.Error(w, "calendar unavailable", http.StatusBadGateway)
			return
		}
		if listing == "" {
			listing = "На этой неделе концертов нет."
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(listing))
	}
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// refreshManagers периодически перечитывает состав руководителей, чтобы
// снимок не зависел только от событий group_officers_edit.
func refreshManagers(ctx context.Context, logger zerolog.Logger, managers *bot.ManagerSet) {
	ticker := time.NewTicker(managerRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := managers.Refresh(ctx); err != nil {
				logger.Error().Err(err).Msg("не удалось обновить руководителей")
			}
		}
	}
}

func buildQueue(cfg config.AppConfig, logger zerolog.Logger) (domain.BroadcastQueue, func(), error) {
	switch cfg.Queue.Driver {
	case "amqp":
		q, err := queue.NewAMQPBroadcastQueue(cfg.Queue.AMQPURL, cfg.Queue.Broadcast)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	case "redis", "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return queue.NewRedisBroadcastQueue(client, cfg.Queue.Broadcast), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("неизвестный драйвер очереди %q", cfg.Queue.Driver)
	}
}

var _ domain.UserRepo = (*repo.Postgres)(nil)
var _ domain.ClickRepo = (*repo.Postgres)(nil)
var _ domain.DrawingRepo = (*repo.Postgres)(nil)
var _ domain.Messenger = (*vk.Client)(nil)
var _ domain.ManagerSource = (*vk.Client)(nil)
var _ domain.ConcertSource = (*calendar.Client)(nil)
