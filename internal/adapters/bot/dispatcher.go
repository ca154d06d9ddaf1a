package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vk-concert-bot/internal/adapters/vk"
	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/metrics"
	"vk-concert-bot/internal/usecase/drawings"
	"vk-concert-bot/internal/usecase/poster"
	"vk-concert-bot/internal/usecase/subscriptions"
)

const dedupWindow = time.Minute

// Handler обрабатывает одну команду.
type Handler func(ctx context.Context, c *Ctx) error

// ProfileSource отдаёт анкетные данные пользователей. Необязательная
// зависимость: без неё бот обходится обезличенными текстами.
type ProfileSource interface {
	GetProfiles(ctx context.Context, vkIDs []int64) ([]vk.Profile, error)
}

// Ctx — контекст выполнения обработчика команды.
type Ctx struct {
	User       *domain.User
	Payload    domain.Payload
	Message    Message
	ClientInfo ClientInfo

	dispatcher *Dispatcher
	stateSet   bool
	newState   *domain.Payload
}

// SetState взводит ожидающее состояние на следующий ход диалога.
// Обработчик, который не вызвал SetState, оставляет пользователя без
// состояния: диспетчер очистит его после возврата. Повторный вызов с тем же
// значением — штатный приём «попробуйте ещё раз».
func (c *Ctx) SetState(state domain.Payload) {
	c.stateSet = true
	c.newState = &state
}

// DefaultKeyboard возвращает главное меню для уровня доступа пользователя.
func (c *Ctx) DefaultKeyboard() []byte {
	return defaultKeyboard(c.dispatcher.managers.IsManager(c.User.VKID), c.ClientInfo.InlineKeyboard)
}

// Reply отправляет ответ пользователю, разбивая длинный текст на части.
// Клавиатура прикрепляется к первой части.
func (c *Ctx) Reply(ctx context.Context, text string, keyboard []byte) error {
	parts := vk.SplitMessage(text)
	for i, part := range parts {
		msg := domain.OutgoingMessage{Text: part}
		if i == 0 {
			msg.Keyboard = keyboard
		}
		if err := c.dispatcher.messenger.Send(ctx, []int64{c.User.VKID}, msg); err != nil {
			return fmt.Errorf("отправка ответа: %w", err)
		}
	}
	return nil
}

// ReplyMessage отправляет произвольное исходящее сообщение (вложения,
// пересылка) без разбиения.
func (c *Ctx) ReplyMessage(ctx context.Context, msg domain.OutgoingMessage) error {
	return c.dispatcher.messenger.Send(ctx, []int64{c.User.VKID}, msg)
}

// Dispatcher — конечный автомат диалога: резолвит команду события,
// применяет гейт авторизации, пишет аналитику и фиксирует переход состояния.
type Dispatcher struct {
	log       zerolog.Logger
	users     domain.UserRepo
	clicks    domain.ClickRepo
	messenger domain.Messenger
	poster    *poster.Service
	drawings  *drawings.Service
	subs      *subscriptions.Service
	managers  *ManagerSet
	profiles  ProfileSource

	actions     map[string]Handler
	dedupWindow time.Duration
	now         func() time.Time
}

// NewDispatcher создаёт диспетчер и проверяет полноту таблицы действий:
// незарегистрированный тег — ошибка программирования, ловим её на старте.
func NewDispatcher(
	logger zerolog.Logger,
	users domain.UserRepo,
	clicks domain.ClickRepo,
	messenger domain.Messenger,
	posterSvc *poster.Service,
	drawingsSvc *drawings.Service,
	subsSvc *subscriptions.Service,
	managers *ManagerSet,
) *Dispatcher {
	d := &Dispatcher{
		log:         logger,
		users:       users,
		clicks:      clicks,
		messenger:   messenger,
		poster:      posterSvc,
		drawings:    drawingsSvc,
		subs:        subsSvc,
		managers:    managers,
		dedupWindow: dedupWindow,
		now:         time.Now,
	}
	d.actions = d.buildActions()
	for _, cmd := range domain.Commands {
		if _, ok := d.actions[cmd]; !ok {
			panic(fmt.Sprintf("bot: для команды %q нет обработчика", cmd))
		}
	}
	return d
}

// HandleEvent обрабатывает событие Callback API. Ошибки проглатываются:
// платформа ждёт подтверждения, а не диагностики.
func (d *Dispatcher) HandleEvent(ctx context.Context, event CallbackEvent) {
	metrics.EventsTotal.WithLabelValues(event.Type).Inc()
	switch event.Type {
	case EventMessageNew:
		var obj MessageObject
		if err := json.Unmarshal(event.Object, &obj); err != nil {
			d.log.Error().Err(err).Msg("не удалось разобрать message_new")
			return
		}
		d.handleMessage(ctx, obj.Message, obj.ClientInfo)
	case EventGroupJoin:
		var obj GroupMemberObject
		if err := json.Unmarshal(event.Object, &obj); err != nil {
			d.log.Error().Err(err).Msg("не удалось разобрать group_join")
			return
		}
		d.handleGroupJoin(ctx, obj)
	case EventGroupLeave:
		var obj GroupMemberObject
		if err := json.Unmarshal(event.Object, &obj); err != nil {
			d.log.Error().Err(err).Msg("не удалось разобрать group_leave")
			return
		}
		d.handleGroupLeave(ctx, obj)
	case EventGroupOfficersEdit:
		if err := d.managers.Refresh(ctx); err != nil {
			d.log.Error().Err(err).Msg("не удалось обновить список руководителей")
		}
	case EventWallPostNew:
		var obj WallPostObject
		if err := json.Unmarshal(event.Object, &obj); err != nil {
			d.log.Error().Err(err).Msg("не удалось разобрать wall_post_new")
			return
		}
		d.handleWallPost(ctx, obj)
	case EventWallRepost:
		d.log.Debug().Msg("репост на стене, пропускаем")
	default:
		d.log.Warn().Str("type", event.Type).Msg("неизвестный тип события")
	}
}

// handleMessage ведёт сообщение по полному циклу: загрузка пользователя,
// отсев устаревших событий, резолв команды, гейт авторизации, аналитика,
// вызов обработчика и фиксация перехода состояния. Любой сбой логируется
// и не покидает метод.
func (d *Dispatcher) handleMessage(ctx context.Context, msg Message, clientInfo ClientInfo) {
	user, err := d.loadOrCreateUser(ctx, msg.FromID)
	if err != nil {
		d.log.Error().Err(err).Int64("user", msg.FromID).Msg("не удалось загрузить пользователя")
		return
	}

	// Повторные и опоздавшие доставки отбрасываем по метке времени.
	if user.LastMessageDate > msg.Date {
		metrics.StaleEventsTotal.Inc()
		d.log.Debug().Int64("user", user.VKID).Int64("date", msg.Date).Msg("событие отброшено как устаревшее")
		return
	}

	buttonPayload := domain.DecodePayload(msg.Payload)
	effective := buttonPayload
	if effective == nil {
		effective = user.State
	}

	if effective == nil {
		user.LastMessageDate = msg.Date
		if err := d.users.SaveUser(ctx, user); err != nil {
			d.log.Error().Err(err).Int64("user", user.VKID).Msg("не удалось сохранить пользователя")
		}
		return
	}

	c := &Ctx{
		User:       user,
		Payload:    *effective,
		Message:    msg,
		ClientInfo: clientInfo,
		dispatcher: d,
	}

	if effective.IsAdmin() && !d.managers.IsManager(user.VKID) {
		metrics.DeniedTotal.Inc()
		if err := c.Reply(ctx, captionUnauthorized, c.DefaultKeyboard()); err != nil {
			d.log.Error().Err(err).Int64("user", user.VKID).Msg("не удалось отправить отказ")
		}
		user.LastMessageDate = msg.Date
		if err := d.users.SaveUser(ctx, user); err != nil {
			d.log.Error().Err(err).Int64("user", user.VKID).Msg("не удалось сохранить пользователя")
		}
		return
	}

	if !effective.AnalyticsExempt() {
		d.recordClick(ctx, user.VKID, *effective)
	}

	d.invoke(ctx, c, effective.Command)

	user.LastMessageDate = msg.Date
	if c.stateSet {
		user.State = c.newState
	} else {
		user.State = nil
	}
	if err := d.users.SaveUser(ctx, user); err != nil {
		d.log.Error().Err(err).Int64("user", user.VKID).Msg("не удалось сохранить пользователя")
	}
}

func (d *Dispatcher) invoke(ctx context.Context, c *Ctx, command string) {
	handler, ok := d.actions[command]
	if !ok {
		d.log.Error().Str("command", command).Msg("неизвестная команда")
		if err := c.Reply(ctx, captionChooseAction, c.DefaultKeyboard()); err != nil {
			d.log.Error().Err(err).Msg("не удалось отправить подсказку")
		}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("command", command).Msg("паника в обработчике")
		}
	}()

	start := time.Now()
	err := handler(ctx, c)
	metrics.HandlerSeconds.Observe(time.Since(start).Seconds())
	metrics.DispatchedTotal.WithLabelValues(command).Inc()
	if err != nil {
		d.log.Error().Err(err).Str("command", command).Int64("user", c.User.VKID).Msg("ошибка обработчика")
	}
}

func (d *Dispatcher) loadOrCreateUser(ctx context.Context, vkID int64) (*domain.User, error) {
	user, err := d.users.GetByVKID(ctx, vkID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	user = &domain.User{
		VKID:          vkID,
		Subscriptions: []string{},
	}
	if err := d.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetProfileSource включает персональные приветствия и подписи заявок.
func (d *Dispatcher) SetProfileSource(src ProfileSource) {
	d.profiles = src
}

func (d *Dispatcher) firstName(ctx context.Context, vkID int64) string {
	if d.profiles == nil {
		return ""
	}
	profiles, err := d.profiles.GetProfiles(ctx, []int64{vkID})
	if err != nil || len(profiles) == 0 {
		return ""
	}
	return profiles[0].FirstName
}

func (d *Dispatcher) handleGroupJoin(ctx context.Context, obj GroupMemberObject) {
	err := d.messenger.Send(ctx, []int64{obj.UserID}, domain.OutgoingMessage{
		Text:     captionGreeting(d.firstName(ctx, obj.UserID)),
		Keyboard: defaultKeyboard(d.managers.IsManager(obj.UserID), false),
	})
	if err != nil {
		// Пользователь мог запретить сообщения сообщества.
		d.log.Debug().Err(err).Int64("user", obj.UserID).Msg("не удалось поприветствовать")
	}
}

func (d *Dispatcher) handleGroupLeave(ctx context.Context, obj GroupMemberObject) {
	err := d.messenger.Send(ctx, []int64{obj.UserID}, domain.OutgoingMessage{Text: captionGoodbye})
	if err != nil {
		// После выхода пользователь часто закрывает сообщения сообщества.
		d.log.Debug().Err(err).Int64("user", obj.UserID).Msg("не удалось попрощаться")
	}
}

func (d *Dispatcher) handleWallPost(ctx context.Context, obj WallPostObject) {
	attachment := fmt.Sprintf("wall%d_%d", obj.OwnerID, obj.ID)
	sent, err := d.subs.BroadcastWithAttachments(ctx,
		subscriptions.TopicPoster,
		"Новый пост в сообществе 👇",
		[]string{attachment},
		domain.BroadcastCauseWallPost,
	)
	if err != nil {
		d.log.Error().Err(err).Str("attachment", attachment).Msg("не удалось разослать пост")
		return
	}
	d.log.Info().Int("recipients", sent).Str("attachment", attachment).Msg("пост поставлен в рассылку")
}
