package enrich

import (
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"hello world, nothing special", "en"},
		{"Привет мир, как дела?", "ru"},
		{"schönes Wetter heute, große Freude", "de"},
		{"mañana será otro día", "es"},
		{"être ou ne pas être, voilà la question", "fr"},
		{"12345 !!!", "en"},
		{"", "en"},
		// A single Cyrillic word in otherwise-English text is enough.
		{"Check out this мир photo from today", "ru"},
		// é belongs to the Spanish set, which is checked before French.
		{"café olé", "es"},
		// ü is shared between German and Spanish; German is checked first.
		{"über todo", "de"},
	}
	for _, c := range cases {
		if got := DetectLanguage(c.text); got != c.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestSupportedPair(t *testing.T) {
	cases := []struct {
		source, target string
		want           bool
	}{
		{"en", "ru", true},
		{"de", "en", true},
		{"en", "fr", true},
		{"ru", "de", false}, // neither side English
		{"en", "ja", false},
		{"xx", "en", false},
	}
	for _, c := range cases {
		if got := SupportedPair(c.source, c.target); got != c.want {
			t.Errorf("SupportedPair(%s, %s) = %v, want %v", c.source, c.target, got, c.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second!? Third. and a tail without punctuation")
	want := []string{"First one.", "Second!?", "Third.", "and a tail without punctuation"}
	if len(got) != len(want) {
		t.Fatalf("splitSentences = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitSentences = %q, want %q", got, want)
		}
	}
}

func TestSplitSentences_DotInsideWordIsKept(t *testing.T) {
	got := splitSentences("visit example.com today. bye.")
	if len(got) != 2 || got[0] != "visit example.com today." {
		t.Fatalf("splitSentences = %q", got)
	}
}

func TestChunkSentences_RespectsLimit(t *testing.T) {
	sentence := strings.Repeat("word ", 100) + "end."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 10))

	chunks := chunkSentences(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > chunkMaxChars {
			t.Errorf("chunk %d has %d chars, limit %d", i, len(c), chunkMaxChars)
		}
	}
	if got := strings.Join(chunks, " "); got != text {
		t.Error("rejoined chunks do not reproduce the input")
	}
}

func TestChunkSentences_OversizedSentenceStaysWhole(t *testing.T) {
	long := strings.Repeat("a", chunkMaxChars+10) + "."
	chunks := chunkSentences(long)
	if len(chunks) != 1 || chunks[0] != long {
		t.Fatalf("oversized sentence was split: %d chunks", len(chunks))
	}
}

func TestLimitSentences(t *testing.T) {
	text := "One. Two. Three. Four. Five. Six. Seven."
	got := limitSentences(text, 5)
	if got != "One. Two. Three. Four. Five." {
		t.Errorf("limitSentences = %q", got)
	}
	if got := limitSentences("Just one.", 5); got != "Just one." {
		t.Errorf("short text changed: %q", got)
	}
}
