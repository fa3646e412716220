package preprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "Hello world", "Hello world"},
		{"html tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script removed", "<script>alert(1)</script>Texto visível", "Texto visível"},
		{"urls removed", "Veja https://example.com/path?q=1 agora", "Veja agora"},
		{"whitespace collapsed", "  muitos \n\n espaços\t aqui  ", "muitos espaços aqui"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"escaped markup stripped", "&lt;b&gt;negrito&lt;/b&gt; texto", "negrito texto"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestCleanIdempotentAndShrinking(t *testing.T) {
	inputs := []string{
		"<div>O Brasil é o <em>maior</em> produtor de café &amp; soja</div>",
		"Leia mais em http://fake.news/x e https://a.b/c?d=e",
		"&amp;amp;lt;i&amp;amp;gt; nested entities",
		"AT&T anuncia 5 < 6 e 7 > 3",
		"URGENTE!!!   \n CHOCANTE",
		"news &" + strings.Repeat("amp;", 12) + "lt;b&gt;bold text here",
		strings.Repeat("&amp;", 3) + strings.Repeat("amp;", 40) + "lt;i&gt;deep",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean should be idempotent for %q", in)
		assert.LessOrEqual(t, len(once), len(in), "Clean should never grow %q", in)
		assert.NotContains(t, once, "&amp;")
		assert.NotContains(t, once, "<i>")
	}
}

func TestIsValidContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty", "", false},
		{"too short", "curto", false},
		{"whitespace padded short", "   abc     ", false},
		{"digits only", "1234567890", false},
		{"mostly symbols", "!!!!!!!!!!!!!!!!!!!!ab", false},
		{"valid sentence", "a valid sentence with words", true},
		{"accented letters", "Você não vai acreditar nisso", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidContent(tt.input))
		})
	}
}

func TestDetectRedFlagsSensationalist(t *testing.T) {
	flags := DetectRedFlags("URGENTE!!! CHOCANTE!!! Você não vai acreditar!!!")

	assert.NotEmpty(t, flags)
	assert.Contains(t, flags, "Sensationalist language detected: 'chocante'")
	assert.Contains(t, flags, "Excessive use of exclamation marks")
}

func TestDetectRedFlagsRules(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "clean sourced text",
			input:    "Segundo o IBGE, a população cresceu.",
			expected: []string{},
		},
		{
			name:     "all caps",
			input:    "ESTE TEXTO ESTA TODO EM MAIUSCULAS",
			expected: []string{"Text entirely in capital letters (CAPS LOCK)"},
		},
		{
			name:     "missing sources on long text",
			input:    strings.Repeat("uma frase qualquer sem atribuicao ", 4),
			expected: []string{"No source attribution indicators"},
		},
		{
			name:     "numbers without context",
			input:    "Os numeros 1 2 3 4 5 6 aparecem aqui",
			expected: []string{"Numbers without adequate context"},
		},
		{
			name:     "numbers with context",
			input:    "Os numeros 1 2 3 4 5 6 representam 10%",
			expected: []string{},
		},
		{
			name:     "emotional appeal",
			input:    "Medo e pânico tomam conta",
			expected: []string{"Excessive emotional appeal"},
		},
		{
			name:     "single emotional word",
			input:    "Sentimos medo ontem",
			expected: []string{},
		},
		{
			name:     "conspiracy",
			input:    "A nova ordem mundial e os illuminati",
			expected: []string{"Possible conspiracy theory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectRedFlags(tt.input))
		})
	}
}

func TestDetectRedFlagsOrderFollowsRules(t *testing.T) {
	// conspiracy keyword appears first in the text but its rule is declared last
	text := "Illuminati! Chocante! Urgente! Terror! Pânico!"
	flags := DetectRedFlags(text)

	assert.Equal(t, []string{
		"Sensationalist language detected: 'chocante'",
		"Excessive use of exclamation marks",
		"Excessive emotional appeal",
		"Possible conspiracy theory",
	}, flags)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc\ndef", Sanitize("  a\x00b\x07c\ndef  "))
	assert.Equal(t, MaxInputLength, len(Sanitize(strings.Repeat("x", MaxInputLength+100))))
}

func TestReadability(t *testing.T) {
	stats := Readability("Uma frase. Outra frase aqui!")

	assert.Equal(t, 2, stats.Sentences)
	assert.Equal(t, 5, stats.Words)
	assert.Equal(t, 28, stats.Chars)
	assert.Equal(t, 2.5, stats.AvgWordsPerSentence)
	assert.Equal(t, 5.6, stats.AvgCharsPerWord)
}

func TestExtractSentences(t *testing.T) {
	assert.Equal(t, []string{"Olá", "Tudo bem", "Sim"}, ExtractSentences("Olá. Tudo bem?! Sim."))
	assert.Empty(t, ExtractSentences("..."))
}
