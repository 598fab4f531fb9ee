package enrich

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Model inputs are bounded, so long posts are split at sentence boundaries
// into chunks of roughly 512 tokens (approximated at 4 characters per
// token) and translated piecewise.
const (
	chunkMaxTokens     = 512
	charsPerToken      = 4
	chunkMaxChars      = chunkMaxTokens * charsPerToken
	maxOutputSentences = 5
)

// supportedLangs are the languages translation can pair with English.
var supportedLangs = map[string]struct{}{
	"en": {}, "ru": {}, "de": {}, "es": {}, "fr": {},
}

// SupportedLang reports whether code names a language the translation
// worker handles.
func SupportedLang(code string) bool {
	_, ok := supportedLangs[code]
	return ok
}

// SupportedPair reports whether translation between source and target is
// available. Pairs go through English: one side must be "en".
func SupportedPair(source, target string) bool {
	if !SupportedLang(source) || !SupportedLang(target) {
		return false
	}
	return source == "en" || target == "en"
}

// langName renders a display name for a language code, falling back to the
// raw code when it does not parse.
func langName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return display.English.Languages().Name(tag)
}

// DetectLanguage guesses the language of text from its characters. Checks
// are ordered and first match wins: any Cyrillic character means Russian,
// then German, Spanish, and French diacritics in turn. Shared characters
// resolve to the earlier language (ü is German before Spanish, é is Spanish
// before French). Plain ASCII text detects as English.
func DetectLanguage(text string) string {
	switch {
	case strings.ContainsFunc(text, func(r rune) bool { return r >= 0x0400 && r <= 0x04FF }):
		return "ru"
	case strings.ContainsAny(text, "äöüßÄÖÜ"):
		return "de"
	case strings.ContainsAny(text, "ñáéíóúüÑÁÉÍÓÚÜ"):
		return "es"
	case strings.ContainsAny(text, "àâäéèêëïîôùûüÿçÀÂÄÉÈÊËÏÎÔÙÛÜŸÇ"):
		return "fr"
	default:
		return "en"
	}
}

// chunkSentences splits text at sentence boundaries into chunks of at most
// chunkMaxChars characters. A single sentence longer than the limit becomes
// its own oversized chunk rather than being cut mid-sentence.
func chunkSentences(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	for _, s := range sentences {
		if cur.Len() > 0 && cur.Len()+1+len(s) > chunkMaxChars {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitSentences cuts text after runs of sentence-ending punctuation
// followed by whitespace.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		j := i
		for j+1 < len(runes) && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}
		if j+1 >= len(runes) || unicode.IsSpace(runes[j+1]) {
			if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
				out = append(out, s)
			}
			start = j + 1
		}
		i = j
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// limitSentences truncates text to at most n sentences.
func limitSentences(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) <= n {
		return strings.TrimSpace(text)
	}
	return strings.Join(sentences[:n], " ")
}
