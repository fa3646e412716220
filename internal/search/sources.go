package search

import (
	"net/url"
	"strings"

	"github.com/zombar/factcheck/internal/models"
)

const fallbackRelevance = 0.6

var highCredibilityDomains = []string{
	"gov.br", "edu.br", "bbc.com", "reuters.com", "apnews.com",
	"nature.com", "science.org", "who.int", "un.org",
	"folha.uol.com.br", "estadao.com.br", "g1.globo.com",
	"aosfatos.org", "piaui.folha.uol.com.br", "snopes.com",
}

var lowCredibilityIndicators = []string{
	"blogspot", "wordpress.com", "wix.com", "weebly.com", "tumblr.com",
}

// EvaluateSourceCredibility rates a URL by its domain: high for known
// newsrooms, agencies and fact-checkers, low for free blog hosts, medium otherwise
func EvaluateSourceCredibility(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, domain := range highCredibilityDomains {
		if strings.Contains(lower, domain) {
			return "high"
		}
	}
	for _, indicator := range lowCredibilityIndicators {
		if strings.Contains(lower, indicator) {
			return "low"
		}
	}
	return "medium"
}

// FallbackSources returns fact-checking sites with a search link for query
func FallbackSources(query string) []models.Source {
	q := url.QueryEscape(query)
	return []models.Source{
		{
			Title:       "Agência Lupa - Fact-checking",
			URL:         "https://piaui.folha.uol.com.br/lupa/?s=" + q,
			Credibility: "high",
			Relevance:   fallbackRelevance,
			Summary:     "Brazilian fact-checking agency",
		},
		{
			Title:       "Aos Fatos",
			URL:         "https://www.aosfatos.org/?s=" + q,
			Credibility: "high",
			Relevance:   fallbackRelevance,
			Summary:     "Brazilian fact-checking platform",
		},
		{
			Title:       "E-Farsas",
			URL:         "https://www.e-farsas.com/?s=" + q,
			Credibility: "high",
			Relevance:   fallbackRelevance,
			Summary:     "Brazilian hoax verification site",
		},
		{
			Title:       "Snopes",
			URL:         "https://www.snopes.com/?s=" + q,
			Credibility: "high",
			Relevance:   fallbackRelevance,
			Summary:     "International fact-checking site",
		},
		{
			Title:       "FactCheck.org",
			URL:         "https://www.factcheck.org/?s=" + q,
			Credibility: "high",
			Relevance:   fallbackRelevance,
			Summary:     "Fact-checking project of the University of Pennsylvania",
		},
	}
}

// TrustedSources lists the fact-checking organizations recommended to users
func TrustedSources() []models.TrustedSource {
	return []models.TrustedSource{
		{Name: "Agência Lupa", URL: "https://piaui.folha.uol.com.br/lupa/", Type: "fact-checking", Country: "BR"},
		{Name: "Aos Fatos", URL: "https://www.aosfatos.org/", Type: "fact-checking", Country: "BR"},
		{Name: "E-Farsas", URL: "https://www.e-farsas.com/", Type: "fact-checking", Country: "BR"},
		{Name: "Comprova", URL: "https://projetocomprova.com.br/", Type: "fact-checking", Country: "BR"},
		{Name: "Snopes", URL: "https://www.snopes.com/", Type: "fact-checking", Country: "US"},
		{Name: "FactCheck.org", URL: "https://www.factcheck.org/", Type: "fact-checking", Country: "US"},
		{Name: "PolitiFact", URL: "https://www.politifact.com/", Type: "fact-checking", Country: "US"},
		{Name: "Full Fact", URL: "https://fullfact.org/", Type: "fact-checking", Country: "UK"},
	}
}
