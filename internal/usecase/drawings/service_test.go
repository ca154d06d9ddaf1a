package drawings

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Билеты на фест  ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if name != "Билеты на фест" {
		t.Fatalf("название должно быть обрезано: %q", name)
	}

	if _, err := ValidateName("   "); err != ErrNameEmpty {
		t.Fatalf("ожидали ErrNameEmpty, получили %v", err)
	}

	long := strings.Repeat("я", MaxNameLength+1)
	if _, err := ValidateName(long); err != ErrNameTooLong {
		t.Fatalf("ожидали ErrNameTooLong, получили %v", err)
	}

	exact := strings.Repeat("я", MaxNameLength)
	if _, err := ValidateName(exact); err != nil {
		t.Fatalf("название ровно в лимит должно проходить: %v", err)
	}
}

func TestParsePostID(t *testing.T) {
	cases := map[string]string{
		"-123_456":                          "-123_456",
		"https://vk.com/wall-123_456":       "-123_456",
		"vk.com/club1?w=wall-9_77":          "-9_77",
		"просто текст":                      "",
		"https://vk.com/wall-123_456extras": "",
	}
	for input, expected := range cases {
		postID, err := ParsePostID(input)
		if expected == "" {
			if err == nil {
				t.Fatalf("ожидали ошибку для %q", input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", input, err)
		}
		if postID != expected {
			t.Fatalf("ожидали %s, получили %s", expected, postID)
		}
	}
}
