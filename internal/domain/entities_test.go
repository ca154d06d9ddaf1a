package domain

import "testing"

func TestSubscribeKeepsTopicsUnique(t *testing.T) {
	var u User
	u.Subscribe("poster")
	u.Subscribe("poster")
	if len(u.Subscriptions) != 1 {
		t.Fatalf("тема не должна дублироваться: %v", u.Subscriptions)
	}
	u.Unsubscribe("poster")
	if u.Subscribed("poster") {
		t.Fatal("после отписки тема должна исчезнуть")
	}
}

func TestSubscribedCallableOnValue(t *testing.T) {
	users := map[int64]User{42: {VKID: 42, Subscriptions: []string{"drawings"}}}
	if !users[42].Subscribed("drawings") {
		t.Fatal("подписка должна читаться из значения без адресации")
	}
	if users[42].Subscribed("poster") {
		t.Fatal("чужая тема не должна считаться подпиской")
	}
}
