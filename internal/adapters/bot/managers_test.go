package bot

import (
	"context"
	"testing"
)

func TestManagerSetRefreshReplacesSnapshot(t *testing.T) {
	source := &fakeManagerSource{ids: []int64{1, 2}}
	set := NewManagerSet(source)

	if set.IsManager(1) {
		t.Fatal("до первого обновления снимок должен быть пустым")
	}
	if err := set.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !set.IsManager(1) || !set.IsManager(2) || set.IsManager(3) {
		t.Fatal("снимок не совпадает с источником")
	}

	source.ids = []int64{3}
	if err := set.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if set.IsManager(1) || !set.IsManager(3) {
		t.Fatal("обновление должно подменять снимок целиком")
	}
}
