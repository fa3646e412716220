// Package preprocess normalizes raw content and runs heuristic red-flag detection.
package preprocess

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MinContentLength is the minimum trimmed length accepted for analysis
	MinContentLength = 10
	// MinLetterRatio is the minimum share of letters in valid content
	MinLetterRatio = 0.3
	// MaxInputLength caps sanitized user input
	MaxInputLength = 50000
)

var (
	urlPattern      = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	numberPattern   = regexp.MustCompile(`\d+`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)

	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func stripPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Clean strips HTML markup and entities, removes URLs, collapses whitespace and trims.
// Passes are repeated until the text stops changing, so Clean(Clean(x)) == Clean(x).
// After the first pass, which may replace invalid UTF-8, every change shrinks the text.
func Clean(text string) string {
	for pass := 0; ; pass++ {
		next := cleanOnce(text)
		if next == text || (pass > 0 && len(next) >= len(text)) {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	// bluemonday re-escapes the text it keeps; unescape to get plain characters back
	text = html.UnescapeString(stripPolicy().Sanitize(text))
	text = urlPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// IsValidContent reports whether text is long enough and mostly made of letters
func IsValidContent(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinContentLength {
		return false
	}

	total, letters := 0, 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) >= float64(total)*MinLetterRatio
}

// DetectRedFlags scans text for misinformation warning signs.
// Each rule is independent; results follow rule order.
func DetectRedFlags(text string) []string {
	flags := []string{}
	lower := strings.ToLower(text)
	length := utf8.RuneCountInString(text)

	if phrase, ok := firstMatch(lower, sensationalistPhrases()); ok {
		flags = append(flags, fmt.Sprintf("Sensationalist language detected: '%s'", phrase))
	}

	if strings.Count(text, "!") > 3 {
		flags = append(flags, "Excessive use of exclamation marks")
	}

	if length > 20 && isAllUpper(text) {
		flags = append(flags, "Text entirely in capital letters (CAPS LOCK)")
	}

	if _, attributed := firstMatch(lower, sourceCues()); !attributed && length > 100 {
		flags = append(flags, "No source attribution indicators")
	}

	if len(numberPattern.FindAllString(text, -1)) > 5 {
		if _, hasContext := firstMatch(lower, numberContextWords()); !hasContext {
			flags = append(flags, "Numbers without adequate context")
		}
	}

	emotional := 0
	for _, word := range emotionalWords() {
		if strings.Contains(lower, word) {
			emotional++
		}
	}
	if emotional >= 2 {
		flags = append(flags, "Excessive emotional appeal")
	}

	if _, ok := firstMatch(lower, conspiracyIndicators()); ok {
		flags = append(flags, "Possible conspiracy theory")
	}

	return flags
}

// firstMatch returns the first lexicon entry contained in text
func firstMatch(text string, lexicon []string) (string, bool) {
	for _, entry := range lexicon {
		if strings.Contains(text, entry) {
			return entry, true
		}
	}
	return "", false
}

// isAllUpper reports whether text has at least one cased letter and no lowercase ones
func isAllUpper(text string) bool {
	cased := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// Sanitize drops control characters (except newlines and tabs), caps the length and trims
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		if count == MaxInputLength {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

// ExtractSentences splits text on terminal punctuation, dropping empty fragments
func ExtractSentences(text string) []string {
	sentences := []string{}
	for _, s := range sentencePattern.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// ReadabilityStats holds basic size metrics of a text
type ReadabilityStats struct {
	Sentences           int     `json:"num_sentences"`
	Words               int     `json:"num_words"`
	Chars               int     `json:"num_chars"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	AvgCharsPerWord     float64 `json:"avg_chars_per_word"`
}

// Readability computes sentence and word statistics rounded to two decimals
func Readability(text string) ReadabilityStats {
	stats := ReadabilityStats{
		Sentences: len(ExtractSentences(text)),
		Words:     len(strings.Fields(text)),
		Chars:     utf8.RuneCountInString(text),
	}
	if stats.Sentences > 0 {
		stats.AvgWordsPerSentence = round2(float64(stats.Words) / float64(stats.Sentences))
	}
	if stats.Words > 0 {
		stats.AvgCharsPerWord = round2(float64(stats.Chars) / float64(stats.Words))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
