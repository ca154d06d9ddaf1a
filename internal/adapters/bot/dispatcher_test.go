package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/usecase/drawings"
	"vk-concert-bot/internal/usecase/poster"
	"vk-concert-bot/internal/usecase/subscriptions"
)

type fakeUserRepo struct {
	users   map[int64]domain.User
	nextID  int64
	saves   int
	creates int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.User)}
}

func (r *fakeUserRepo) GetByVKID(_ context.Context, vkID int64) (*domain.User, error) {
	user, ok := r.users[vkID]
	if !ok {
		return nil, nil
	}
	clone := user
	return &clone, nil
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *domain.User) error {
	r.creates++
	r.nextID++
	user.ID = r.nextID
	r.users[user.VKID] = *user
	return nil
}

func (r *fakeUserRepo) SaveUser(_ context.Context, user *domain.User) error {
	r.saves++
	r.users[user.VKID] = *user
	return nil
}

func (r *fakeUserRepo) ListSubscribed(_ context.Context, topic string) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if user.Subscribed(topic) {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakeClickRepo struct {
	clicks    []domain.Click
	stats     []domain.ClickStat
	statsFrom time.Time
	statsTo   time.Time
}

func (r *fakeClickRepo) ListRecent(_ context.Context, vkID int64, since time.Time) ([]domain.Click, error) {
	var out []domain.Click
	for _, click := range r.clicks {
		if click.VKID == vkID && !click.CreatedAt.Before(since) {
			out = append(out, click)
		}
	}
	return out, nil
}

func (r *fakeClickRepo) Insert(_ context.Context, vkID int64, payload domain.Payload) error {
	r.clicks = append(r.clicks, domain.Click{VKID: vkID, Payload: payload, CreatedAt: time.Now()})
	return nil
}

func (r *fakeClickRepo) RollupDay(context.Context, time.Time) error { return nil }

func (r *fakeClickRepo) PruneBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (r *fakeClickRepo) ListStats(_ context.Context, from, to time.Time) ([]domain.ClickStat, error) {
	r.statsFrom, r.statsTo = from, to
	return r.stats, nil
}

type sentMessage struct {
	peers []int64
	msg   domain.OutgoingMessage
}

type fakeMessenger struct {
	sent []sentMessage
}

func (m *fakeMessenger) Send(_ context.Context, peerIDs []int64, msg domain.OutgoingMessage) error {
	m.sent = append(m.sent, sentMessage{peers: peerIDs, msg: msg})
	return nil
}

type fakeConcertSource struct {
	concerts []domain.Concert
	err      error
	from     time.Time
	to       time.Time
}

func (s *fakeConcertSource) ConcertsBetween(_ context.Context, from, to time.Time) ([]domain.Concert, error) {
	s.from, s.to = from, to
	return s.concerts, s.err
}

type fakeDrawingRepo struct {
	drawings map[int64]domain.Drawing
	nextID   int64
}

func newFakeDrawingRepo() *fakeDrawingRepo {
	return &fakeDrawingRepo{drawings: make(map[int64]domain.Drawing)}
}

func (r *fakeDrawingRepo) ListActive(context.Context) ([]domain.Drawing, error) {
	var out []domain.Drawing
	for _, d := range r.drawings {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDrawingRepo) GetByID(_ context.Context, id int64) (*domain.Drawing, error) {
	d, ok := r.drawings[id]
	if !ok {
		return nil, nil
	}
	clone := d
	return &clone, nil
}

func (r *fakeDrawingRepo) CreateDrawing(_ context.Context, d *domain.Drawing) error {
	r.nextID++
	d.ID = r.nextID
	r.drawings[d.ID] = *d
	return nil
}

func (r *fakeDrawingRepo) SaveDrawing(_ context.Context, d *domain.Drawing) error {
	r.drawings[d.ID] = *d
	return nil
}

func (r *fakeDrawingRepo) DeactivateExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeQueue struct {
	jobs []domain.BroadcastJob
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.BroadcastJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Pop(context.Context) (domain.BroadcastJob, error) {
	return domain.BroadcastJob{}, errors.New("not implemented")
}

type fakeManagerSource struct {
	ids []int64
}

func (s *fakeManagerSource) ManagerIDs(context.Context) ([]int64, error) { return s.ids, nil }

type testEnv struct {
	dispatcher *Dispatcher
	users      *fakeUserRepo
	clicks     *fakeClickRepo
	messenger  *fakeMessenger
	source     *fakeConcertSource
	drawings   *fakeDrawingRepo
	queue      *fakeQueue
}

func newTestEnv(t *testing.T, managerIDs ...int64) *testEnv {
	t.Helper()
	users := newFakeUserRepo()
	clicks := &fakeClickRepo{}
	messenger := &fakeMessenger{}
	source := &fakeConcertSource{}
	drawingRepo := newFakeDrawingRepo()
	queue := &fakeQueue{}

	managers := NewManagerSet(&fakeManagerSource{ids: managerIDs})
	if err := managers.Refresh(context.Background()); err != nil {
		t.Fatalf("не удалось обновить руководителей: %v", err)
	}

	d := NewDispatcher(
		zerolog.Nop(),
		users,
		clicks,
		messenger,
		poster.NewService(source, time.UTC),
		drawings.NewService(drawingRepo),
		subscriptions.NewService(users, queue),
		managers,
	)
	return &testEnv{
		dispatcher: d,
		users:      users,
		clicks:     clicks,
		messenger:  messenger,
		source:     source,
		drawings:   drawingRepo,
		queue:      queue,
	}
}

func payloadJSON(t *testing.T, p domain.Payload) string {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(data)
}

func (e *testEnv) handle(msg Message) {
	e.dispatcher.handleMessage(context.Background(), msg, ClientInfo{InlineKeyboard: true})
}

func TestUnseenUserCreatedWithoutReply(t *testing.T) {
	env := newTestEnv(t)

	env.handle(Message{FromID: 42, Date: 100, Text: ""})

	user, ok := env.users.users[42]
	if !ok {
		t.Fatal("пользователь должен быть создан")
	}
	if user.State != nil {
		t.Fatalf("состояние нового пользователя должно быть пустым: %+v", user.State)
	}
	if len(user.Subscriptions) != 0 {
		t.Fatalf("подписки нового пользователя должны быть пустыми: %v", user.Subscriptions)
	}
	if user.LastMessageDate != 100 {
		t.Fatalf("метка времени не зафиксирована: %d", user.LastMessageDate)
	}
	if len(env.messenger.sent) != 0 {
		t.Fatalf("без команды не должно быть исходящих сообщений: %d", len(env.messenger.sent))
	}
}

func TestMalformedPayloadFallsBackToState(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{
		ID: 1, VKID: 42,
		State: &domain.Payload{Command: domain.CmdWriteToSoundcheckText},
	}

	env.handle(Message{FromID: 42, Date: 10, Text: "Группа, трое, суббота", Payload: "{битый json"})

	if len(env.messenger.sent) == 0 {
		t.Fatal("обработчик состояния должен был ответить")
	}
	last := env.messenger.sent[len(env.messenger.sent)-1]
	if last.msg.Text != captionSoundcheckSent {
		t.Fatalf("ожидали подтверждение заявки, получили %q", last.msg.Text)
	}
	if state := env.users.users[42].State; state != nil {
		t.Fatalf("состояние должно сброситься после обработки: %+v", state)
	}
}

func TestStaleEventDiscarded(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{
		ID: 1, VKID: 42, LastMessageDate: 100,
		State: &domain.Payload{Command: domain.CmdWriteToSoundcheckText},
	}

	env.handle(Message{FromID: 42, Date: 50, Text: "запоздавшее", Payload: payloadJSON(t, domain.Payload{Command: domain.CmdPoster})})

	if len(env.messenger.sent) != 0 {
		t.Fatal("устаревшее событие не должно вызывать обработчик")
	}
	if len(env.clicks.clicks) != 0 {
		t.Fatal("устаревшее событие не должно попадать в аналитику")
	}
	if env.users.saves != 0 {
		t.Fatal("устаревшее событие не должно менять запись пользователя")
	}
	if env.users.users[42].LastMessageDate != 100 {
		t.Fatal("метка времени не должна откатываться")
	}
}

func TestAdminCommandDeniedForNonManager(t *testing.T) {
	env := newTestEnv(t, 777)
	state := &domain.Payload{Command: domain.CmdWriteToSoundcheckText}
	env.users.users[42] = domain.User{ID: 1, VKID: 42, State: state}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdAdminDrawings})})

	if len(env.messenger.sent) != 1 {
		t.Fatalf("ожидали один ответ, получили %d", len(env.messenger.sent))
	}
	if env.messenger.sent[0].msg.Text != captionUnauthorized {
		t.Fatalf("ожидали отказ, получили %q", env.messenger.sent[0].msg.Text)
	}
	saved := env.users.users[42]
	if saved.State == nil || saved.State.Command != domain.CmdWriteToSoundcheckText {
		t.Fatalf("состояние не должно меняться при отказе: %+v", saved.State)
	}
	if len(env.clicks.clicks) != 0 {
		t.Fatal("отказ не должен попадать в аналитику")
	}
}

func TestAdminBackDestinationRequiresRights(t *testing.T) {
	env := newTestEnv(t, 777)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdBack, To: domain.CmdAdminDrawings})})

	if len(env.messenger.sent) != 1 || env.messenger.sent[0].msg.Text != captionUnauthorized {
		t.Fatal("назад в админку без прав должен получать отказ")
	}
}

func TestStateClearedWhenHandlerDoesNotRearm(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{
		ID: 1, VKID: 42,
		State: &domain.Payload{Command: domain.CmdWriteToSoundcheckText},
	}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdPoster})})

	if state := env.users.users[42].State; state != nil {
		t.Fatalf("состояние должно быть сброшено: %+v", state)
	}
}

func TestStateArmedByHandler(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdWriteToSoundcheck})})

	state := env.users.users[42].State
	if state == nil || state.Command != domain.CmdWriteToSoundcheckText {
		t.Fatalf("обработчик должен взвести состояние продолжения: %+v", state)
	}
}

func TestStateRearmedOnEmptyInput(t *testing.T) {
	env := newTestEnv(t)
	pending := domain.Payload{Command: domain.CmdWriteToSoundcheckText}
	env.users.users[42] = domain.User{ID: 1, VKID: 42, State: &pending}

	env.handle(Message{FromID: 42, Date: 10, Text: "   "})

	state := env.users.users[42].State
	if state == nil || *state != pending {
		t.Fatalf("пустой ввод должен взводить то же состояние снова: %+v", state)
	}
}

func TestNoConcertsDayCaption(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}

	dayStart := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC).UnixMilli()
	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdPosterTypeDay, DayStart: dayStart})})

	if len(env.messenger.sent) != 1 {
		t.Fatalf("ожидали один ответ, получили %d", len(env.messenger.sent))
	}
	sent := env.messenger.sent[0]
	if sent.msg.Text != captionNoConcertsDay {
		t.Fatalf("ожидали %q, получили %q", captionNoConcertsDay, sent.msg.Text)
	}
	if sent.msg.Keyboard != nil {
		t.Fatal("пустая афиша не должна менять клавиатуру")
	}
}

func TestPosterDayWithoutStartUsesLocalMidnight(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}
	env.dispatcher.now = func() time.Time {
		return time.Date(2026, time.September, 7, 15, 30, 0, 0, time.UTC)
	}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdPosterTypeDay})})

	wantFrom := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	if !env.source.from.Equal(wantFrom) {
		t.Fatalf("окно дня должно начинаться в полночь: %v", env.source.from)
	}
	if !env.source.to.Equal(wantFrom.Add(24 * time.Hour)) {
		t.Fatalf("окно дня должно заканчиваться следующей полночью: %v", env.source.to)
	}
}

func TestAdminStatsWindowAlignedToMidnight(t *testing.T) {
	env := newTestEnv(t, 42)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}
	env.dispatcher.now = func() time.Time {
		return time.Date(2026, time.September, 7, 15, 30, 0, 0, time.UTC)
	}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdAdminStats})})

	wantTo := time.Date(2026, time.September, 8, 0, 0, 0, 0, time.UTC)
	if !env.clicks.statsTo.Equal(wantTo) {
		t.Fatalf("граница окна должна быть полночью: %v", env.clicks.statsTo)
	}
	if !env.clicks.statsFrom.Equal(wantTo.AddDate(0, 0, -7)) {
		t.Fatalf("окно статистики должно быть 7 суток: %v", env.clicks.statsFrom)
	}
}

func TestLongListingSplitIntoParts(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}

	base := time.Date(2026, time.September, 7, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		env.source.concerts = append(env.source.concerts, domain.Concert{
			Title:    fmt.Sprintf("Группа номер %d, длинное название для объёма текста", i),
			Place:    "Клуб на набережной",
			Price:    "от 1500 ₽",
			StartsAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	env.handle(Message{FromID: 42, Date: 10, Payload: payloadJSON(t, domain.Payload{Command: domain.CmdPosterTypeWeek, WeekStart: base.UnixMilli()})})

	if len(env.messenger.sent) < 2 {
		t.Fatalf("длинная афиша должна разбиваться на части, отправлено %d", len(env.messenger.sent))
	}
	var all []string
	for _, sent := range env.messenger.sent {
		if length := len([]rune(sent.msg.Text)); length > 3500 {
			t.Fatalf("часть превышает лимит: %d", length)
		}
		all = append(all, sent.msg.Text)
	}
	joined := strings.Join(all, "\n")
	for i := 0; i < 60; i++ {
		if !strings.Contains(joined, fmt.Sprintf("Группа номер %d,", i)) {
			t.Fatalf("концерт %d потерян при разбиении", i)
		}
	}
}

func TestDrawingNameTooLongRearmsWizard(t *testing.T) {
	env := newTestEnv(t, 42)
	pending := domain.Payload{Command: domain.CmdAdminDrawingsAddNameText}
	env.users.users[42] = domain.User{ID: 1, VKID: 42, State: &pending}

	env.handle(Message{FromID: 42, Date: 10, Text: strings.Repeat("я", 41)})

	state := env.users.users[42].State
	if state == nil || *state != pending {
		t.Fatalf("мастер должен переспросить название: %+v", state)
	}
	if len(env.messenger.sent) != 1 || env.messenger.sent[0].msg.Text != captionNameTooLong {
		t.Fatal("ожидали сообщение о длинном названии")
	}
	if len(env.drawings.drawings) != 0 {
		t.Fatal("розыгрыш не должен создаваться")
	}
}

func TestDrawingWizardKeepsCollectedFields(t *testing.T) {
	env := newTestEnv(t, 42)
	pending := domain.Payload{Command: domain.CmdAdminDrawingsAddPostText, Name: "Билеты на фест"}
	env.users.users[42] = domain.User{ID: 1, VKID: 42, State: &pending}

	env.handle(Message{FromID: 42, Date: 10, Text: "это не ссылка"})

	state := env.users.users[42].State
	if state == nil || *state != pending {
		t.Fatalf("повторный вопрос должен сохранять собранные поля: %+v", state)
	}
}

func TestUnknownCommandFallsBackToMenu(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42}

	env.handle(Message{FromID: 42, Date: 10, Payload: `{"command":"no_such_command"}`})

	if len(env.messenger.sent) != 1 || env.messenger.sent[0].msg.Text != captionChooseAction {
		t.Fatal("неизвестная команда должна отвечать подсказкой с меню")
	}
	if env.messenger.sent[0].msg.Keyboard == nil {
		t.Fatal("подсказка должна идти с клавиатурой по умолчанию")
	}
}

func TestSubscribeToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[42] = domain.User{ID: 1, VKID: 42, Subscriptions: []string{}}
	toggle := payloadJSON(t, domain.Payload{Command: domain.CmdSubscribePoster})

	env.handle(Message{FromID: 42, Date: 10, Payload: toggle})
	if !env.users.users[42].Subscribed(subscriptions.TopicPoster) {
		t.Fatal("первое нажатие должно включать подписку")
	}

	env.handle(Message{FromID: 42, Date: 11, Payload: toggle})
	if env.users.users[42].Subscribed(subscriptions.TopicPoster) {
		t.Fatal("второе нажатие должно снимать подписку")
	}
	if len(env.clicks.clicks) != 0 {
		t.Fatal("семейство подписок не должно попадать в аналитику")
	}
}

func TestActionTableIsTotal(t *testing.T) {
	env := newTestEnv(t)
	for _, cmd := range domain.Commands {
		if _, ok := env.dispatcher.actions[cmd]; !ok {
			t.Fatalf("нет обработчика для %q", cmd)
		}
	}
}
