package vk

import (
	"strings"
	"testing"
)

func TestSplitMessageRespectsLimit(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("а", 3000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("б", 2000))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("в", 500))

	parts := SplitMessage(builder.String())
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	for i, part := range parts {
		if length := len([]rune(part)); length > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}

	if parts[0] != strings.Repeat("а", 3000) {
		t.Fatalf("unexpected content in first part")
	}

	if !strings.HasSuffix(parts[1], strings.Repeat("в", 500)) {
		t.Fatalf("second part should contain trailing block")
	}
}

func TestSplitMessagePreservesContent(t *testing.T) {
	blocks := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		blocks = append(blocks, strings.Repeat("строка афиши ", 20))
	}
	original := strings.Join(blocks, "\n\n")

	parts := SplitMessage(original)
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}

	// SplitMessage обрезает внешние пробелы, поэтому сравниваем с TrimSpace.
	joined := strings.Join(parts, "\n\n")
	want := strings.TrimSpace(original)
	if strings.ReplaceAll(joined, "\n", "") != strings.ReplaceAll(want, "\n", "") {
		t.Fatal("concatenated parts must reproduce the original content")
	}
}

func TestSplitMessageShortText(t *testing.T) {
	text := "сегодня концертов нет"
	parts := SplitMessage(text)
	if len(parts) != 1 {
		t.Fatalf("expected single part, got %d", len(parts))
	}
	if parts[0] != text {
		t.Fatalf("unexpected text: %q", parts[0])
	}
}

func TestSplitMessageTrimsOuterWhitespace(t *testing.T) {
	parts := SplitMessage("афиша на сегодня \n")
	if len(parts) != 1 {
		t.Fatalf("expected single part, got %d", len(parts))
	}
	if parts[0] != "афиша на сегодня" {
		t.Fatalf("unexpected text: %q", parts[0])
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	parts := SplitMessage("   \n  ")
	if len(parts) != 0 {
		t.Fatalf("expected no parts for empty input, got %d", len(parts))
	}
}
