package bot

import (
	"context"

	"vk-concert-bot/internal/domain"
)

// recordClick записывает нажатие, подавляя повторы одной и той же команды
// в пределах окна. Поля навигации по дням схлопываются до тега команды,
// чтобы листание афиши не множило строки. Защита совещательная: гонка двух
// одинаковых вставок допустима и не должна ронять запрос.
func (d *Dispatcher) recordClick(ctx context.Context, vkID int64, payload domain.Payload) {
	collapsed := payload.Collapsed()
	since := d.now().Add(-d.dedupWindow)

	recent, err := d.clicks.ListRecent(ctx, vkID, since)
	if err != nil {
		d.log.Error().Err(err).Int64("user", vkID).Msg("аналитика: не удалось прочитать недавние нажатия")
		return
	}
	for _, click := range recent {
		if click.Payload.Collapsed().Equal(collapsed) {
			return
		}
	}
	if err := d.clicks.Insert(ctx, vkID, collapsed); err != nil {
		d.log.Error().Err(err).Int64("user", vkID).Str("command", collapsed.Command).Msg("аналитика: не удалось записать нажатие")
	}
}
