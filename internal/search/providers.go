package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zombar/factcheck/internal/models"
)

const (
	GoogleSearchURL    = "https://www.googleapis.com/customsearch/v1"
	NewsAPIURL         = "https://newsapi.org/v2/everything"
	FactCheckSearchURL = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

	googleRelevance    = 0.8
	newsRelevance      = 0.7
	factCheckRelevance = 0.75
)

// Provider is one external search backend
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]models.Source, error)
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GoogleProvider queries the Google Custom Search JSON API
type GoogleProvider struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
}

// NewGoogleProvider creates a Google provider. An empty endpoint uses GoogleSearchURL.
func NewGoogleProvider(apiKey, engineID, endpoint string, client *http.Client) *GoogleProvider {
	if endpoint == "" {
		endpoint = GoogleSearchURL
	}
	return &GoogleProvider{apiKey: apiKey, engineID: engineID, endpoint: endpoint, client: client}
}

// Name identifies the provider in logs and metrics
func (p *GoogleProvider) Name() string { return "google" }

// Search returns up to limit web results for query, capped at 10 by the API
func (p *GoogleProvider) Search(ctx context.Context, query string, limit int) ([]models.Source, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(min(limit, 10)))

	var data struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := getJSON(ctx, p.client, p.endpoint, params, &data); err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(data.Items))
	for _, item := range data.Items {
		sources = append(sources, models.Source{
			Title:       item.Title,
			URL:         item.Link,
			Credibility: EvaluateSourceCredibility(item.Link),
			Relevance:   googleRelevance,
			Summary:     item.Snippet,
		})
	}
	return sources, nil
}

// NewsAPIProvider queries the NewsAPI "everything" endpoint
type NewsAPIProvider struct {
	apiKey   string
	language string
	endpoint string
	client   *http.Client
}

// NewNewsAPIProvider creates a NewsAPI provider. Language defaults to pt.
func NewNewsAPIProvider(apiKey, language, endpoint string, client *http.Client) *NewsAPIProvider {
	if endpoint == "" {
		endpoint = NewsAPIURL
	}
	if language == "" {
		language = "pt"
	}
	return &NewsAPIProvider{apiKey: apiKey, language: language, endpoint: endpoint, client: client}
}

// Name identifies the provider in logs and metrics
func (p *NewsAPIProvider) Name() string { return "newsapi" }

// Search returns up to limit articles for query, sorted by relevancy
func (p *NewsAPIProvider) Search(ctx context.Context, query string, limit int) ([]models.Source, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(min(limit, 20)))
	params.Set("language", p.language)
	params.Set("sortBy", "relevancy")

	var data struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, p.client, p.endpoint, params, &data); err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(data.Articles))
	for _, article := range data.Articles {
		sources = append(sources, models.Source{
			Title:       article.Title,
			URL:         article.URL,
			Credibility: EvaluateSourceCredibility(article.URL),
			Relevance:   newsRelevance,
			Summary:     article.Description,
		})
	}
	return sources, nil
}

// FactCheckProvider queries the Google Fact Check Tools claim search.
// Only claims with at least one published review become sources.
type FactCheckProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewFactCheckProvider creates a Fact Check Tools provider. An empty endpoint uses FactCheckSearchURL.
func NewFactCheckProvider(apiKey, endpoint string, client *http.Client) *FactCheckProvider {
	if endpoint == "" {
		endpoint = FactCheckSearchURL
	}
	return &FactCheckProvider{apiKey: apiKey, endpoint: endpoint, client: client}
}

// Name identifies the provider in logs and metrics
func (p *FactCheckProvider) Name() string { return "factcheck_tools" }

// Search returns reviewed claims matching query
func (p *FactCheckProvider) Search(ctx context.Context, query string, limit int) ([]models.Source, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(limit))

	var data struct {
		Claims []struct {
			Text        string `json:"text"`
			ClaimReview []struct {
				Publisher struct {
					Name string `json:"name"`
				} `json:"publisher"`
				URL           string `json:"url"`
				Title         string `json:"title"`
				TextualRating string `json:"textualRating"`
			} `json:"claimReview"`
		} `json:"claims"`
	}
	if err := getJSON(ctx, p.client, p.endpoint, params, &data); err != nil {
		return nil, err
	}

	sources := []models.Source{}
	for _, claim := range data.Claims {
		if len(claim.ClaimReview) == 0 {
			continue
		}
		review := claim.ClaimReview[0]
		title := review.Title
		if title == "" {
			title = claim.Text
		}
		sources = append(sources, models.Source{
			Title:       title,
			URL:         review.URL,
			Credibility: EvaluateSourceCredibility(review.URL),
			Relevance:   factCheckRelevance,
			Summary:     fmt.Sprintf("%s rated %q as: %s", review.Publisher.Name, claim.Text, review.TextualRating),
		})
	}
	return sources, nil
}
