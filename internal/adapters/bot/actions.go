package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/usecase/subscriptions"
)

func (d *Dispatcher) buildActions() map[string]Handler {
	return map[string]Handler{
		domain.CmdStart:           d.actionStart,
		domain.CmdBack:            d.actionBack,
		domain.CmdRefreshKeyboard: d.actionRefreshKeyboard,

		domain.CmdPoster:         d.actionPosterMenu,
		domain.CmdPosterType:     d.actionPosterMenu,
		domain.CmdPosterTypeDay:  d.actionPosterDay,
		domain.CmdPosterTypeWeek: d.actionPosterWeek,

		domain.CmdSubscriptions:       d.actionSubscriptions,
		domain.CmdSubscribePoster:     d.actionSubscribeToggle,
		domain.CmdSubscribeDrawings:   d.actionSubscribeToggle,
		domain.CmdSubscribeSoundcheck: d.actionSubscribeToggle,

		domain.CmdWriteToSoundcheck:     d.actionSoundcheck,
		domain.CmdWriteToSoundcheckText: d.actionSoundcheckMessage,

		domain.CmdDrawings:       d.actionDrawings,
		domain.CmdDrawingsItem:   d.actionDrawingsItem,
		domain.CmdDrawingsCancel: d.actionStart,

		domain.CmdAdmin: d.actionAdmin,

		domain.CmdAdminDrawings:               d.actionAdminDrawings,
		domain.CmdAdminDrawingsAdd:            d.actionAdminDrawingsAskName,
		domain.CmdAdminDrawingsAddName:        d.actionAdminDrawingsAskName,
		domain.CmdAdminDrawingsAddNameText:    d.actionAdminDrawingsAddName,
		domain.CmdAdminDrawingsAddPost:        d.actionAdminDrawingsAskPost,
		domain.CmdAdminDrawingsAddPostText:    d.actionAdminDrawingsAddPost,
		domain.CmdAdminDrawingsAddConfirm:     d.actionAdminDrawingsAddConfirm,
		domain.CmdAdminDrawingsItem:           d.actionAdminDrawingsItem,
		domain.CmdAdminDrawingsEditName:       d.actionAdminDrawingsAskNewName,
		domain.CmdAdminDrawingsEditNameText:   d.actionAdminDrawingsEditName,
		domain.CmdAdminDrawingsEditPost:       d.actionAdminDrawingsAskNewPost,
		domain.CmdAdminDrawingsEditPostText:   d.actionAdminDrawingsEditPost,
		domain.CmdAdminDrawingsDelete:         d.actionAdminDrawingsAskDelete,
		domain.CmdAdminDrawingsDeleteConfirm:  d.actionAdminDrawingsDeleteConfirm,
		domain.CmdAdminBroadcast:              d.actionAdminBroadcastAskText,
		domain.CmdAdminBroadcastText:          d.actionAdminBroadcastText,
		domain.CmdAdminBroadcastConfirm:       d.actionAdminBroadcastConfirm,
		domain.CmdAdminStats:                  d.actionAdminStats,
	}
}

func (d *Dispatcher) actionStart(ctx context.Context, c *Ctx) error {
	return c.Reply(ctx, captionStart, c.DefaultKeyboard())
}

func (d *Dispatcher) actionBack(ctx context.Context, c *Ctx) error {
	switch c.Payload.To {
	case domain.CmdAdmin:
		return d.actionAdmin(ctx, c)
	case domain.CmdAdminDrawings:
		return d.actionAdminDrawings(ctx, c)
	case domain.CmdPoster:
		return d.actionPosterMenu(ctx, c)
	default:
		return c.Reply(ctx, captionChooseAction, c.DefaultKeyboard())
	}
}

func (d *Dispatcher) actionRefreshKeyboard(ctx context.Context, c *Ctx) error {
	return c.Reply(ctx, captionKeyboardUpdated, c.DefaultKeyboard())
}

func (d *Dispatcher) actionPosterMenu(ctx context.Context, c *Ctx) error {
	kb := posterKeyboard(d.now(), d.poster.Location(), c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionPosterMenu, kb)
}

func (d *Dispatcher) actionPosterDay(ctx context.Context, c *Ctx) error {
	dayStart := time.UnixMilli(c.Payload.DayStart)
	if c.Payload.DayStart == 0 {
		local := d.now().In(d.poster.Location())
		dayStart = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.poster.Location())
	}
	listing, err := d.poster.DayListing(ctx, dayStart)
	if err != nil {
		return err
	}
	if listing == "" {
		return c.Reply(ctx, captionNoConcertsDay, nil)
	}
	return c.Reply(ctx, listing, nil)
}

func (d *Dispatcher) actionPosterWeek(ctx context.Context, c *Ctx) error {
	weekStart := time.UnixMilli(c.Payload.WeekStart)
	if c.Payload.WeekStart == 0 {
		weekStart = d.now()
	}
	listing, err := d.poster.WeekListing(ctx, weekStart)
	if err != nil {
		return err
	}
	if listing == "" {
		return c.Reply(ctx, captionNoConcertsWeek, nil)
	}
	return c.Reply(ctx, listing, nil)
}

func (d *Dispatcher) actionSubscriptions(ctx context.Context, c *Ctx) error {
	kb := subscriptionsKeyboard(c.User, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionSubscriptionsMenu, kb)
}

// subscriptionTopics сопоставляет команду кнопки подписки конкретной теме.
var subscriptionTopics = map[string]string{
	domain.CmdSubscribePoster:     subscriptions.TopicPoster,
	domain.CmdSubscribeDrawings:   subscriptions.TopicDrawings,
	domain.CmdSubscribeSoundcheck: subscriptions.TopicSoundcheck,
}

// actionSubscribeToggle — общий обработчик всего семейства кнопок подписки.
func (d *Dispatcher) actionSubscribeToggle(ctx context.Context, c *Ctx) error {
	topic, ok := subscriptionTopics[c.Payload.Command]
	if !ok {
		return fmt.Errorf("нет темы для команды %q", c.Payload.Command)
	}
	on, err := subscriptions.Toggle(c.User, topic)
	if err != nil {
		return err
	}
	caption := captionUnsubscribed
	if on {
		caption = captionSubscribed
	}
	kb := subscriptionsKeyboard(c.User, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, caption, kb)
}

func (d *Dispatcher) actionSoundcheck(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdWriteToSoundcheckText})
	return c.Reply(ctx, captionSoundcheckAsk, nil)
}

func (d *Dispatcher) actionSoundcheckMessage(ctx context.Context, c *Ctx) error {
	text := strings.TrimSpace(c.Message.Text)
	if text == "" {
		c.SetState(c.Payload)
		return c.Reply(ctx, captionSoundcheckEmpty, nil)
	}
	managers := d.managers.IDs()
	if len(managers) > 0 {
		from := fmt.Sprintf("vk.com/id%d", c.User.VKID)
		if name := d.firstName(ctx, c.User.VKID); name != "" {
			from = name + " (" + from + ")"
		}
		note := fmt.Sprintf("Заявка на саундчек от %s:\n\n%s", from, text)
		err := d.messenger.Send(ctx, managers, domain.OutgoingMessage{
			Text:              note,
			ForwardedMessages: []int64{c.Message.ID},
		})
		if err != nil {
			return fmt.Errorf("пересылка заявки: %w", err)
		}
	}
	return c.Reply(ctx, captionSoundcheckSent, c.DefaultKeyboard())
}

func (d *Dispatcher) actionDrawings(ctx context.Context, c *Ctx) error {
	list, err := d.drawings.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return c.Reply(ctx, captionNoDrawings, nil)
	}
	kb := drawingsKeyboard(list, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionDrawingsMenu, kb)
}

func (d *Dispatcher) actionDrawingsItem(ctx context.Context, c *Ctx) error {
	drawing, err := d.drawings.Get(ctx, c.Payload.DrawingID)
	if err != nil {
		return err
	}
	return c.ReplyMessage(ctx, domain.OutgoingMessage{
		Text:        captionDrawing(*drawing),
		Attachments: []string{"wall" + drawing.PostID},
	})
}
