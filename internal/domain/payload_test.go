package domain

import "testing"

func TestDecodePayload(t *testing.T) {
	p := DecodePayload(`{"command":"poster/type/day","dayStart":1700000000000}`)
	if p == nil {
		t.Fatal("ожидали распознанную команду")
	}
	if p.Command != CmdPosterTypeDay {
		t.Fatalf("ожидали %s, получили %s", CmdPosterTypeDay, p.Command)
	}
	if p.DayStart != 1700000000000 {
		t.Fatalf("неожиданный dayStart: %d", p.DayStart)
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	cases := []string{"", "   ", "{", `{"command":""}`, "not json", `[1,2]`}
	for _, raw := range cases {
		if p := DecodePayload(raw); p != nil {
			t.Fatalf("ожидали nil для %q, получили %+v", raw, p)
		}
	}
}

func TestCollapsedDropsDayFields(t *testing.T) {
	day := Payload{Command: CmdPosterTypeDay, DayStart: 123}
	other := Payload{Command: CmdPosterTypeDay, DayStart: 456}
	if !day.Collapsed().Equal(other.Collapsed()) {
		t.Fatal("навигация по разным дням должна схлопываться в одну команду")
	}
	item := Payload{Command: CmdDrawingsItem, DrawingID: 7}
	if item.Collapsed() != item {
		t.Fatal("остальные команды не должны терять поля")
	}
}

func TestIsAdmin(t *testing.T) {
	if !(Payload{Command: CmdAdminDrawings}).IsAdmin() {
		t.Fatal("admin/drawings — админская команда")
	}
	if !(Payload{Command: CmdBack, To: CmdAdminDrawings}).IsAdmin() {
		t.Fatal("назад в админский раздел требует прав")
	}
	if (Payload{Command: CmdBack, To: CmdPoster}).IsAdmin() {
		t.Fatal("назад в афишу прав не требует")
	}
	if (Payload{Command: CmdPoster}).IsAdmin() {
		t.Fatal("афиша доступна всем")
	}
}

func TestAnalyticsExempt(t *testing.T) {
	exempt := []string{CmdStart, CmdBack, CmdRefreshKeyboard, CmdSubscriptions, CmdSubscribePoster, CmdWriteToSoundcheck, CmdAdminDrawingsAdd}
	for _, cmd := range exempt {
		if !(Payload{Command: cmd}).AnalyticsExempt() {
			t.Fatalf("команда %s не должна попадать в аналитику", cmd)
		}
	}
	counted := []string{CmdPoster, CmdPosterTypeDay, CmdDrawings, CmdDrawingsItem}
	for _, cmd := range counted {
		if (Payload{Command: cmd}).AnalyticsExempt() {
			t.Fatalf("команда %s должна попадать в аналитику", cmd)
		}
	}
}
