package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/usecase/drawings"
	"vk-concert-bot/internal/usecase/subscriptions"
)

// Срок розыгрыша по умолчанию, пока администратор не задал свой.
const defaultDrawingTTL = 30 * 24 * time.Hour

func (d *Dispatcher) actionAdmin(ctx context.Context, c *Ctx) error {
	return c.Reply(ctx, captionAdminMenu, adminKeyboard(c.ClientInfo.InlineKeyboard))
}

func (d *Dispatcher) actionAdminStats(ctx context.Context, c *Ctx) error {
	local := d.now().In(d.poster.Location())
	to := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.poster.Location()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -7)
	stats, err := d.clicks.ListStats(ctx, from, to)
	if err != nil {
		return err
	}
	return c.Reply(ctx, captionStats(stats), nil)
}

func (d *Dispatcher) actionAdminDrawings(ctx context.Context, c *Ctx) error {
	list, err := d.drawings.ListActive(ctx)
	if err != nil {
		return err
	}
	kb := adminDrawingsKeyboard(list, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionDrawingsMenu, kb)
}

func (d *Dispatcher) actionAdminDrawingsAskName(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdAdminDrawingsAddNameText})
	return c.Reply(ctx, captionDrawingAskName, nil)
}

// actionAdminDrawingsAddName — шаг мастера: название нового розыгрыша.
// Невалидный ввод взводит то же состояние снова, пока не пройдёт проверку.
func (d *Dispatcher) actionAdminDrawingsAddName(ctx context.Context, c *Ctx) error {
	name, err := drawings.ValidateName(c.Message.Text)
	if err != nil {
		c.SetState(c.Payload)
		return c.Reply(ctx, nameErrorCaption(err), nil)
	}
	c.SetState(domain.Payload{Command: domain.CmdAdminDrawingsAddPostText, Name: name})
	return c.Reply(ctx, captionDrawingAskPost, nil)
}

func (d *Dispatcher) actionAdminDrawingsAskPost(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdAdminDrawingsAddPostText, Name: c.Payload.Name})
	return c.Reply(ctx, captionDrawingAskPost, nil)
}

// actionAdminDrawingsAddPost — шаг мастера: пост нового розыгрыша. Название,
// собранное на прошлом шаге, переезжает в нагрузку кнопки подтверждения.
func (d *Dispatcher) actionAdminDrawingsAddPost(ctx context.Context, c *Ctx) error {
	postID, err := drawings.ParsePostID(c.Message.Text)
	if err != nil {
		c.SetState(c.Payload)
		return c.Reply(ctx, captionInvalidPost, nil)
	}
	confirm := domain.Payload{
		Command: domain.CmdAdminDrawingsAddConfirm,
		Name:    c.Payload.Name,
		PostID:  postID,
	}
	kb := confirmKeyboard(confirm, domain.CmdAdminDrawings, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionDrawingConfirm(confirm.Name, confirm.PostID), kb)
}

func (d *Dispatcher) actionAdminDrawingsAddConfirm(ctx context.Context, c *Ctx) error {
	_, err := d.drawings.Create(ctx, c.Payload.Name, c.Payload.PostID, d.now().Add(defaultDrawingTTL))
	if err != nil {
		return err
	}
	if err := c.Reply(ctx, captionDrawingCreated, nil); err != nil {
		return err
	}
	return d.actionAdminDrawings(ctx, c)
}

func (d *Dispatcher) actionAdminDrawingsItem(ctx context.Context, c *Ctx) error {
	drawing, err := d.drawings.Get(ctx, c.Payload.DrawingID)
	if err != nil {
		return err
	}
	kb := adminDrawingKeyboard(drawing.ID, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionAdminDrawing(*drawing), kb)
}

func (d *Dispatcher) actionAdminDrawingsAskNewName(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdAdminDrawingsEditNameText, DrawingID: c.Payload.DrawingID})
	return c.Reply(ctx, captionDrawingAskName, nil)
}

func (d *Dispatcher) actionAdminDrawingsEditName(ctx context.Context, c *Ctx) error {
	name, err := drawings.ValidateName(c.Message.Text)
	if err != nil {
		c.SetState(c.Payload)
		return c.Reply(ctx, nameErrorCaption(err), nil)
	}
	if _, err := d.drawings.Rename(ctx, c.Payload.DrawingID, name); err != nil {
		return err
	}
	return c.Reply(ctx, captionDrawingRenamed, nil)
}

func (d *Dispatcher) actionAdminDrawingsAskNewPost(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdAdminDrawingsEditPostText, DrawingID: c.Payload.DrawingID})
	return c.Reply(ctx, captionDrawingAskPost, nil)
}

func (d *Dispatcher) actionAdminDrawingsEditPost(ctx context.Context, c *Ctx) error {
	postID, err := drawings.ParsePostID(c.Message.Text)
	if err != nil {
		c.SetState(c.Payload)
		return c.Reply(ctx, captionInvalidPost, nil)
	}
	if _, err := d.drawings.SetPost(ctx, c.Payload.DrawingID, postID); err != nil {
		return err
	}
	return c.Reply(ctx, captionDrawingRepost, nil)
}

func (d *Dispatcher) actionAdminDrawingsAskDelete(ctx context.Context, c *Ctx) error {
	confirm := domain.Payload{Command: domain.CmdAdminDrawingsDeleteConfirm, DrawingID: c.Payload.DrawingID}
	kb := confirmKeyboard(confirm, domain.CmdAdminDrawings, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, "Завершить розыгрыш? Запись останется в истории.", kb)
}

func (d *Dispatcher) actionAdminDrawingsDeleteConfirm(ctx context.Context, c *Ctx) error {
	if err := d.drawings.Delete(ctx, c.Payload.DrawingID); err != nil {
		return err
	}
	if err := c.Reply(ctx, captionDrawingDeleted, nil); err != nil {
		return err
	}
	return d.actionAdminDrawings(ctx, c)
}

func (d *Dispatcher) actionAdminBroadcastAskText(ctx context.Context, c *Ctx) error {
	c.SetState(domain.Payload{Command: domain.CmdAdminBroadcastText})
	return c.Reply(ctx, captionBroadcastAsk, nil)
}

func (d *Dispatcher) actionAdminBroadcastText(ctx context.Context, c *Ctx) error {
	text := strings.TrimSpace(c.Message.Text)
	if text == "" {
		c.SetState(c.Payload)
		return c.Reply(ctx, captionBroadcastEmpty, nil)
	}
	subscribers, err := d.users.ListSubscribed(ctx, subscriptions.TopicPoster)
	if err != nil {
		return err
	}
	confirm := domain.Payload{Command: domain.CmdAdminBroadcastConfirm, Text: text}
	kb := confirmKeyboard(confirm, domain.CmdAdmin, c.ClientInfo.InlineKeyboard)
	return c.Reply(ctx, captionBroadcastConfirm(text, len(subscribers)), kb)
}

func (d *Dispatcher) actionAdminBroadcastConfirm(ctx context.Context, c *Ctx) error {
	_, err := d.subs.Broadcast(ctx, subscriptions.TopicPoster, c.Payload.Text, nil, domain.BroadcastCauseManual)
	if err != nil {
		return err
	}
	return c.Reply(ctx, captionBroadcastDone, nil)
}

func nameErrorCaption(err error) string {
	if errors.Is(err, drawings.ErrNameTooLong) {
		return captionNameTooLong
	}
	return captionNameEmpty
}
