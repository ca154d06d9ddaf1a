package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

func marshalState(state *domain.Payload) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

func unmarshalState(raw []byte) (*domain.Payload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var state domain.Payload
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetByVKID возвращает пользователя или nil, если он ещё не встречался.
func (p *Postgres) GetByVKID(ctx context.Context, vkID int64) (*domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		user     domain.User
		rawState []byte
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, vk_id, first_name, last_name, sex, bdate, last_message_date, state, subscriptions, created_at, updated_at
FROM users WHERE vk_id = $1
`, vkID).Scan(&user.ID, &user.VKID, &user.FirstName, &user.LastName, &user.Sex, &user.BDate,
		&user.LastMessageDate, &rawState, &user.Subscriptions, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state, err := unmarshalState(rawState)
	if err != nil {
		return nil, fmt.Errorf("состояние пользователя %d: %w", vkID, err)
	}
	user.State = state
	return &user, nil
}

// CreateUser заводит новую запись пользователя.
func (p *Postgres) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	rawState, err := marshalState(user.State)
	if err != nil {
		return err
	}
	if user.Subscriptions == nil {
		user.Subscriptions = []string{}
	}
	start := time.Now()
	err = p.pool.QueryRow(ctx, `
INSERT INTO users (vk_id, first_name, last_name, sex, bdate, last_message_date, state, subscriptions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (vk_id) DO NOTHING
RETURNING id, created_at, updated_at
`, user.VKID, user.FirstName, user.LastName, user.Sex, user.BDate, user.LastMessageDate, rawState, user.Subscriptions).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_insert", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		// Гонка при первом событии: запись уже создана соседним запросом.
		existing, getErr := p.GetByVKID(ctx, user.VKID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return errors.New("создание пользователя: запись не найдена после конфликта")
		}
		*user = *existing
		return nil
	}
	return err
}

// SaveUser сохраняет состояние пользователя после обработки события.
func (p *Postgres) SaveUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	rawState, err := marshalState(user.State)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = p.pool.Exec(ctx, `
UPDATE users
SET first_name = $2, last_name = $3, sex = $4, bdate = $5,
    last_message_date = $6, state = $7, subscriptions = $8, updated_at = now()
WHERE vk_id = $1
`, user.VKID, user.FirstName, user.LastName, user.Sex, user.BDate,
		user.LastMessageDate, rawState, user.Subscriptions)
	metrics.ObserveNetworkRequest("postgres", "users_update", start, err)
	return err
}

// ListSubscribed возвращает пользователей с подпиской на тему.
func (p *Postgres) ListSubscribed(ctx context.Context, topic string) ([]domain.User, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, vk_id, subscriptions FROM users WHERE $1 = ANY(subscriptions)
`, topic)
	metrics.ObserveNetworkRequest("postgres", "users_list_subscribed", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.VKID, &user.Subscriptions); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListRecent возвращает нажатия пользователя с указанного момента.
func (p *Postgres) ListRecent(ctx context.Context, vkID int64, since time.Time) ([]domain.Click, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, vk_id, payload, created_at FROM clicks
WHERE vk_id = $1 AND created_at >= $2
`, vkID, since)
	metrics.ObserveNetworkRequest("postgres", "clicks_list_recent", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clicks []domain.Click
	for rows.Next() {
		var (
			click domain.Click
			raw   []byte
		)
		if err := rows.Scan(&click.ID, &click.VKID, &raw, &click.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &click.Payload); err != nil {
			return nil, fmt.Errorf("нагрузка нажатия %d: %w", click.ID, err)
		}
		clicks = append(clicks, click)
	}
	return clicks, rows.Err()
}

// Insert записывает нажатие кнопки.
func (p *Postgres) Insert(ctx context.Context, vkID int64, payload domain.Payload) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO clicks (vk_id, payload, created_at) VALUES ($1, $2, now())
`, vkID, raw)
	metrics.ObserveNetworkRequest("postgres", "clicks_insert", start, err)
	return err
}

// RollupDay сворачивает нажатия за сутки в суточные агрегаты.
func (p *Postgres) RollupDay(ctx context.Context, day time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	from := day.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO click_stats (day, command, count)
SELECT $1::date, payload->>'command', count(*)
FROM clicks
WHERE created_at >= $1 AND created_at < $2
GROUP BY payload->>'command'
ON CONFLICT (day, command) DO UPDATE SET count = EXCLUDED.count
`, from, to)
	metrics.ObserveNetworkRequest("postgres", "click_stats_rollup", start, err)
	return err
}

// PruneBefore удаляет нажатия старше горизонта хранения.
func (p *Postgres) PruneBefore(ctx context.Context, horizon time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM clicks WHERE created_at < $1`, horizon)
	metrics.ObserveNetworkRequest("postgres", "clicks_prune", start, err)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListStats возвращает агрегаты нажатий за интервал.
func (p *Postgres) ListStats(ctx context.Context, from, to time.Time) ([]domain.ClickStat, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT day, command, count FROM click_stats
WHERE day >= $1 AND day < $2
ORDER BY day, count DESC
`, from, to)
	metrics.ObserveNetworkRequest("postgres", "click_stats_list", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.ClickStat
	for rows.Next() {
		var stat domain.ClickStat
		if err := rows.Scan(&stat.Day, &stat.Command, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// ListActive возвращает действующие розыгрыши.
func (p *Postgres) ListActive(ctx context.Context) ([]domain.Drawing, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, post_id, active, expires_at, created_at, updated_at
FROM drawings WHERE active ORDER BY expires_at
`)
	metrics.ObserveNetworkRequest("postgres", "drawings_list_active", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drawings []domain.Drawing
	for rows.Next() {
		var d domain.Drawing
		if err := rows.Scan(&d.ID, &d.Name, &d.PostID, &d.Active, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drawings = append(drawings, d)
	}
	return drawings, rows.Err()
}

// GetByID возвращает розыгрыш или nil.
func (p *Postgres) GetByID(ctx context.Context, id int64) (*domain.Drawing, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var d domain.Drawing
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name, post_id, active, expires_at, created_at, updated_at
FROM drawings WHERE id = $1
`, id).Scan(&d.ID, &d.Name, &d.PostID, &d.Active, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "drawings_get", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDrawing сохраняет новый розыгрыш.
func (p *Postgres) CreateDrawing(ctx context.Context, drawing *domain.Drawing) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO drawings (name, post_id, active, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at
`, drawing.Name, drawing.PostID, drawing.Active, drawing.ExpiresAt).
		Scan(&drawing.ID, &drawing.CreatedAt, &drawing.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "drawings_insert", start, err)
	return err
}

// SaveDrawing обновляет розыгрыш.
func (p *Postgres) SaveDrawing(ctx context.Context, drawing *domain.Drawing) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE drawings SET name = $2, post_id = $3, active = $4, expires_at = $5, updated_at = now()
WHERE id = $1
`, drawing.ID, drawing.Name, drawing.PostID, drawing.Active, drawing.ExpiresAt)
	metrics.ObserveNetworkRequest("postgres", "drawings_update", start, err)
	return err
}

// DeactivateExpired гасит розыгрыши с истёкшим сроком.
func (p *Postgres) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE drawings SET active = false, updated_at = now()
WHERE active AND expires_at < $1
`, now)
	metrics.ObserveNetworkRequest("postgres", "drawings_deactivate", start, err)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
