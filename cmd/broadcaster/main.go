package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vk-concert-bot/internal/adapters/vk"
	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/config"
	"vk-concert-bot/internal/infra/log"
	"vk-concert-bot/internal/infra/metrics"
	"vk-concert-bot/internal/infra/queue"
)

const sendTimeout = 10 * time.Minute

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	vkClient := vk.NewClient(vk.Config{
		Token:      cfg.VK.Token,
		GroupID:    cfg.VK.GroupID,
		APIVersion: cfg.VK.APIVersion,
		ChunkSize:  cfg.Limits.SendChunk,
		ChunkDelay: time.Duration(cfg.Limits.SendDelayMS) * time.Millisecond,
	}, logger)

	broadcastQueue, closeQueue, err := buildQueue(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать очередь рассылок")
	}
	defer closeQueue()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, fmt.Sprintf(":%d", cfg.MetricsPort))

	logger.Info().Msg("рассыльщик запущен")
	for {
		job, err := broadcastQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("остановка рассыльщика")
				return
			}
			logger.Error().Err(err).Msg("не удалось прочитать задачу из очереди")
			time.Sleep(time.Second)
			continue
		}
		deliver(ctx, logger, vkClient, job)
	}
}

// deliver отправляет рассылку получателям. Ошибка отправки не возвращает
// задачу в очередь: VK не даёт идемпотентности, повтор продублирует
// сообщения уже охваченной части получателей.
func deliver(ctx context.Context, logger zerolog.Logger, messenger domain.Messenger, job domain.BroadcastJob) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := messenger.Send(sendCtx, job.Recipients, domain.OutgoingMessage{
		Text:        job.Text,
		Keyboard:    job.Keyboard,
		Attachments: job.Attachments,
	})
	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.
		Str("job", job.ID).
		Str("topic", job.Topic).
		Str("cause", string(job.Cause)).
		Int("recipients", len(job.Recipients)).
		Msg("рассылка обработана")
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
