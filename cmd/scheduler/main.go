package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"vk-concert-bot/internal/adapters/calendar"
	"vk-concert-bot/internal/adapters/repo"
	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/config"
	"vk-concert-bot/internal/infra/db"
	"vk-concert-bot/internal/infra/log"
	"vk-concert-bot/internal/infra/metrics"
	"vk-concert-bot/internal/infra/queue"
	"vk-concert-bot/internal/usecase/poster"
	"vk-concert-bot/internal/usecase/subscriptions"
)

const jobTimeout = 5 * time.Minute

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
	calendarClient := calendar.NewClient(cfg.Calendar.ID, cfg.Calendar.APIKey)
	posterService := poster.NewService(calendarClient, loc)

	broadcastQueue, closeQueue, err := buildQueue(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать очередь рассылок")
	}
	defer closeQueue()
	subscriptionService := subscriptions.NewService(repoAdapter, broadcastQueue)

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, fmt.Sprintf(":%d", cfg.MetricsPort))

	c := cron.New(cron.WithLocation(loc))

	mustSchedule(logger, c, cfg.Schedule.DigestCron, "digest", func(jobCtx context.Context) error {
		return sendDigest(jobCtx, logger, posterService, subscriptionService, loc)
	})
	mustSchedule(logger, c, cfg.Schedule.RollupCron, "rollup", func(jobCtx context.Context) error {
		return rollupClicks(jobCtx, logger, repoAdapter, cfg.Limits.ClickRetention, loc)
	})
	mustSchedule(logger, c, cfg.Schedule.ExpiryCron, "drawing_expiry", func(jobCtx context.Context) error {
		expired, err := repoAdapter.DeactivateExpired(jobCtx, time.Now().UTC())
		if err != nil {
			return err
		}
		if expired > 0 {
			logger.Info().Int64("count", expired).Msg("розыгрыши сняты по сроку")
		}
		return nil
	})

	c.Start()
	logger.Info().Msg("планировщик запущен")

	<-ctx.Done()
	logger.Info().Msg("остановка планировщика")
	<-c.Stop().Done()
}

func mustSchedule(logger zerolog.Logger, c *cron.Cron, spec, name string, job func(context.Context) error) {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			logger.Error().Err(err).Str("job", name).Msg("задача завершилась с ошибкой")
			return
		}
		logger.Info().Str("job", name).Dur("took", time.Since(start)).Msg("задача выполнена")
	})
	if err != nil {
		logger.Fatal().Err(err).Str("job", name).Str("spec", spec).Msg("не удалось запланировать задачу")
	}
}

// sendDigest рассылает подписчикам афишу на сегодняшний день.
func sendDigest(ctx context.Context, logger zerolog.Logger, posterService *poster.Service, subs *subscriptions.Service, loc *time.Location) error {
	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	listing, err := posterService.DayListing(ctx, dayStart)
	if err != nil {
		return err
	}
	if strings.TrimSpace(listing) == "" {
		logger.Info().Msg("на сегодня концертов нет, рассылка пропущена")
		return nil
	}
	count, err := subs.Broadcast(ctx, subscriptions.TopicPoster, listing, nil, domain.BroadcastCauseDigest)
	if err != nil {
		return err
	}
	logger.Info().Int("recipients", count).Msg("афиша поставлена в рассылку")
	return nil
}

// rollupClicks сворачивает вчерашние нажатия в суточные агрегаты и чистит
// сырые записи за пределами срока хранения.
func rollupClicks(ctx context.Context, logger zerolog.Logger, repoAdapter *repo.Postgres, retentionDays int, loc *time.Location) error {
	now := time.Now().In(loc)
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	if err := repoAdapter.RollupDay(ctx, yesterday); err != nil {
		return err
	}
	pruned, err := repoAdapter.PruneBefore(ctx, now.AddDate(0, 0, -retentionDays))
	if err != nil {
		return err
	}
	if pruned > 0 {
		logger.Info().Int64("count", pruned).Msg("старые нажатия удалены")
	}
	return nil
}

func buildQueue(cfg config.AppConfig) (domain.BroadcastQueue, func(), error) {
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
