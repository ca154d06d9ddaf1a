package bot

import (
	"context"
	"testing"
	"time"

	"vk-concert-bot/internal/domain"
)

func TestRecordClickSuppressesRepeatsWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPoster})
	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPoster})

	if len(env.clicks.clicks) != 1 {
		t.Fatalf("повтор в пределах окна должен подавляться, записей: %d", len(env.clicks.clicks))
	}
}

func TestRecordClickAllowsRepeatAfterWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPoster})
	env.clicks.clicks[0].CreatedAt = time.Now().Add(-2 * time.Minute)
	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPoster})

	if len(env.clicks.clicks) != 2 {
		t.Fatalf("после истечения окна повтор должен записываться, записей: %d", len(env.clicks.clicks))
	}
}

func TestRecordClickCollapsesDayNavigation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPosterTypeDay, DayStart: 1000})
	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPosterTypeDay, DayStart: 2000})

	if len(env.clicks.clicks) != 1 {
		t.Fatalf("листание дней должно схлопываться в одну запись, записей: %d", len(env.clicks.clicks))
	}
	if stored := env.clicks.clicks[0].Payload; stored.DayStart != 0 {
		t.Fatalf("записываться должна схлопнутая команда, получили %+v", stored)
	}
}

func TestRecordClickDifferentUsersIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.recordClick(ctx, 42, domain.Payload{Command: domain.CmdPoster})
	env.dispatcher.recordClick(ctx, 43, domain.Payload{Command: domain.CmdPoster})

	if len(env.clicks.clicks) != 2 {
		t.Fatalf("окно считается по пользователю, записей: %d", len(env.clicks.clicks))
	}
}
