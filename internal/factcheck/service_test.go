package factcheck

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zombar/factcheck/internal/analysis"
	"github.com/zombar/factcheck/internal/media"
	"github.com/zombar/factcheck/internal/models"
)

type fakeAnalyzer struct {
	result   *models.AnalysisResult
	err      error
	contents []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, content, _ string) (*models.AnalysisResult, error) {
	f.contents = append(f.contents, content)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

type searchCall struct {
	query string
	max   int
}

type fakeSearcher struct {
	byQuery map[string][]models.Source
	calls   []searchCall
}

func (f *fakeSearcher) SearchSources(_ context.Context, query string, max int) []models.Source {
	f.calls = append(f.calls, searchCall{query, max})
	if src, ok := f.byQuery[query]; ok {
		return src
	}
	return []models.Source{}
}

type fakeFetcher struct {
	text string
	ok   bool
}

func (f *fakeFetcher) FetchURLContent(context.Context, string) (string, bool) {
	return f.text, f.ok
}

type fakeMedia struct {
	image *models.ImageAnalysis
	video *models.VideoAnalysis
	err   error
}

func (f *fakeMedia) AnalyzeImage(context.Context, string) (*models.ImageAnalysis, error) {
	return f.image, f.err
}

func (f *fakeMedia) AnalyzeVideo(context.Context, string) (*models.VideoAnalysis, error) {
	return f.video, f.err
}

func neutralResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		CredibilityScore:   0.85,
		OverallCredibility: "high",
		Summary:            "O Brasil lidera a produção mundial de café.",
		Claims: []models.ClaimDraft{
			{Text: "Brasil é o maior produtor de café", Veracity: "true", Confidence: 0.9, Explanation: "FAO"},
		},
		RedFlags:        []string{},
		Recommendations: []string{},
	}
}

func TestCheckEndToEndText(t *testing.T) {
	an := &fakeAnalyzer{result: neutralResult()}
	searcher := &fakeSearcher{}
	svc := NewService(Deps{Analyzer: an, Searcher: searcher}, nil, nil)

	req := models.FactCheckRequest{
		Content:      "O Brasil é o maior produtor de café do mundo.",
		ContentType:  models.ContentTypeText,
		CheckSources: false,
		Language:     "pt",
	}
	resp, err := svc.Check(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.ContentTypeText, resp.ContentType)
	assert.GreaterOrEqual(t, resp.CredibilityScore, 0.0)
	assert.LessOrEqual(t, resp.CredibilityScore, 1.0)
	assert.Equal(t, models.CredibilityHigh, resp.OverallCredibility)
	assert.NotNil(t, resp.Claims)
	require.Len(t, resp.Claims, 1)
	assert.Equal(t, []models.Source{}, resp.Claims[0].Sources)
	assert.Equal(t, []models.Source{}, resp.SourcesChecked)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)
	assert.Empty(t, searcher.calls, "no search without check_sources")
	assert.Equal(t, "O Brasil é o maior produtor de café do mundo.", resp.Content)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestCheckSearchUsesMainClaimFirst(t *testing.T) {
	claimSources := []models.Source{{Title: "FAO", Credibility: "high", Relevance: 0.8}}
	searcher := &fakeSearcher{byQuery: map[string][]models.Source{
		"Brasil é o maior produtor de café": claimSources,
	}}
	svc := NewService(Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Searcher: searcher}, nil, nil)

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{
		Content: "O Brasil é o maior produtor de café do mundo.", ContentType: models.ContentTypeText, CheckSources: true,
	})
	require.NoError(t, err)

	assert.Equal(t, claimSources, resp.SourcesChecked)
	assert.Equal(t, []searchCall{{"Brasil é o maior produtor de café", 3}}, searcher.calls)
}

func TestCheckSearchFallsBackToOpeningWords(t *testing.T) {
	result := neutralResult()
	result.Claims = []models.ClaimDraft{}
	content := "um dois três quatro cinco seis sete oito nove dez onze doze"
	searcher := &fakeSearcher{byQuery: map[string][]models.Source{
		"um dois três quatro cinco seis sete oito nove dez": {{Title: "general"}},
	}}
	svc := NewService(Deps{Analyzer: &fakeAnalyzer{result: result}, Searcher: searcher}, nil, nil)

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: content, CheckSources: true})
	require.NoError(t, err)

	assert.Equal(t, []searchCall{{"um dois três quatro cinco seis sete oito nove dez", 5}}, searcher.calls)
	require.Len(t, resp.SourcesChecked, 1)
	assert.Equal(t, "general", resp.SourcesChecked[0].Title)
}

func TestCheckSearchClaimWithoutResultsFallsBack(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewService(Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Searcher: searcher}, nil, nil)

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: "O Brasil é o maior produtor de café do mundo.", CheckSources: true})
	require.NoError(t, err)

	require.Len(t, searcher.calls, 2)
	assert.Equal(t, 3, searcher.calls[0].max)
	assert.Equal(t, 5, searcher.calls[1].max)
	assert.Equal(t, []models.Source{}, resp.SourcesChecked)
}

func TestCheckErrors(t *testing.T) {
	modelErr := errors.New("model down")

	tests := []struct {
		name    string
		deps    Deps
		req     models.FactCheckRequest
		wantErr error
	}{
		{
			name:    "invalid content",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}},
			req:     models.FactCheckRequest{Content: "1234567890 1234567890", ContentType: models.ContentTypeText},
			wantErr: ErrInvalidContent,
		},
		{
			name:    "content only markup",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}},
			req:     models.FactCheckRequest{Content: "<div><br/></div>    <p></p>", ContentType: models.ContentTypeText},
			wantErr: ErrInvalidContent,
		},
		{
			name:    "model failure aborts",
			deps:    Deps{Analyzer: &fakeAnalyzer{err: modelErr}},
			req:     models.FactCheckRequest{Content: "Conteúdo suficientemente longo para análise."},
			wantErr: modelErr,
		},
		{
			name:    "model not configured",
			deps:    Deps{Analyzer: analysis.NewEngine(nil, nil, nil)},
			req:     models.FactCheckRequest{Content: "Conteúdo suficientemente longo para análise."},
			wantErr: analysis.ErrModelNotConfigured,
		},
		{
			name:    "malformed url",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Fetcher: &fakeFetcher{}},
			req:     models.FactCheckRequest{Content: "not a url at all", ContentType: models.ContentTypeURL},
			wantErr: ErrInvalidURL,
		},
		{
			name:    "non http url",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Fetcher: &fakeFetcher{}},
			req:     models.FactCheckRequest{Content: "ftp://example.com/file", ContentType: models.ContentTypeURL},
			wantErr: ErrInvalidURL,
		},
		{
			name:    "url fetch failed",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Fetcher: &fakeFetcher{ok: false}},
			req:     models.FactCheckRequest{Content: "https://example.com/news", ContentType: models.ContentTypeURL},
			wantErr: ErrContentFetchFailed,
		},
		{
			name:    "no media analyzer",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}},
			req:     models.FactCheckRequest{Content: "/tmp/x.png", ContentType: models.ContentTypeImage},
			wantErr: media.ErrNoAnalysisMethod,
		},
		{
			name:    "media failure",
			deps:    Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Media: &fakeMedia{err: media.ErrUnsupportedMedia}},
			req:     models.FactCheckRequest{Content: "/tmp/x.mp4", ContentType: models.ContentTypeVideo},
			wantErr: media.ErrUnsupportedMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.deps, nil, nil)
			resp, err := svc.Check(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckURLContent(t *testing.T) {
	an := &fakeAnalyzer{result: neutralResult()}
	fetcher := &fakeFetcher{text: "Texto da notícia publicada segundo a agência oficial.", ok: true}
	svc := NewService(Deps{Analyzer: an, Fetcher: fetcher}, nil, nil)

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: " https://example.com/news ", ContentType: models.ContentTypeURL})
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeURL, resp.ContentType)
	assert.Equal(t, []string{fetcher.text}, an.contents)
}

func TestCheckImageAndVideoSynthesis(t *testing.T) {
	an := &fakeAnalyzer{result: neutralResult()}
	m := &fakeMedia{
		image: &models.ImageAnalysis{
			Description:   "Print de rede social",
			ExtractedText: "Vacina causa chip",
			Claims:        []string{"vacinas contêm chips"},
		},
		video: &models.VideoAnalysis{
			FramesAnalyzed: 2,
			FramesContent:  []models.ImageAnalysis{{Description: "Político discursando"}, {}},
			Duration:       12.5,
		},
	}
	svc := NewService(Deps{Analyzer: an, Media: m}, nil, nil)

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: "/tmp/a.png", ContentType: models.ContentTypeImage})
	require.NoError(t, err)
	require.Len(t, an.contents, 1)
	assert.Contains(t, an.contents[0], "IMAGE ANALYSIS:")
	assert.Contains(t, an.contents[0], "Extracted text: Vacina causa chip")
	assert.Contains(t, an.contents[0], "Identified claims: vacinas contêm chips")
	assert.NotContains(t, an.contents[0], "\n", "processed content is cleaned")
	assert.Contains(t, resp.RedFlags, "Possible conspiracy theory")

	_, err = svc.Check(context.Background(), models.FactCheckRequest{Content: "/tmp/a.mp4", ContentType: models.ContentTypeVideo})
	require.NoError(t, err)
	require.Len(t, an.contents, 2)
	assert.Contains(t, an.contents[1], "Duration: 12.50s")
	assert.Contains(t, an.contents[1], "1. Político discursando")
	assert.Contains(t, an.contents[1], "2. N/A")
}

func TestConsolidation(t *testing.T) {
	result := neutralResult()
	result.CredibilityScore = 0.45
	result.RedFlags = []string{"Model flag", "Excessive use of exclamation marks", "Model flag"}
	an := &fakeAnalyzer{result: result}
	svc := NewService(Deps{Analyzer: an}, nil, nil)

	content := "Atenção!!!! " + strings.Repeat("notícia ", 100)
	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: content})
	require.NoError(t, err)

	assert.Equal(t, models.CredibilityLow, resp.OverallCredibility)
	assert.Equal(t, 500, utf8.RuneCountInString(resp.Content))
	require.GreaterOrEqual(t, len(resp.RedFlags), 2)
	assert.Equal(t, "Excessive use of exclamation marks", resp.RedFlags[0], "heuristic flags come first")
	assert.Equal(t, 1, count(resp.RedFlags, "Excessive use of exclamation marks"))
	assert.Equal(t, 1, count(resp.RedFlags, "Model flag"))
	assert.Equal(t, "Model flag", resp.RedFlags[len(resp.RedFlags)-1])
}

func TestProcessingTimeRounded(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	svc := NewService(Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}}, nil, nil)
	svc.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1234567 * time.Microsecond)
	}

	resp, err := svc.Check(context.Background(), models.FactCheckRequest{Content: "Conteúdo suficientemente longo para análise."})
	require.NoError(t, err)
	assert.Equal(t, 1.23, resp.ProcessingTime)
}

func TestCredibilityLevelFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected models.CredibilityLevel
	}{
		{1.0, models.CredibilityHigh},
		{0.85, models.CredibilityHigh},
		{0.8, models.CredibilityHigh},
		{0.79, models.CredibilityMedium},
		{0.65, models.CredibilityMedium},
		{0.6, models.CredibilityMedium},
		{0.45, models.CredibilityLow},
		{0.4, models.CredibilityLow},
		{0.25, models.CredibilityVeryLow},
		{0.2, models.CredibilityVeryLow},
		{0.05, models.CredibilityUnverifiable},
		{0.0, models.CredibilityUnverifiable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CredibilityLevelFor(tt.score), "score %v", tt.score)
	}
}

func TestMergeRedFlags(t *testing.T) {
	assert.Equal(t, []string{}, mergeRedFlags(nil, nil))
	assert.Equal(t, []string{"a", "b", "c"}, mergeRedFlags([]string{"a", "b"}, []string{"b", "c", "a"}))
}

func TestCheckCreatesStageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	svc := NewService(Deps{Analyzer: &fakeAnalyzer{result: neutralResult()}, Searcher: &fakeSearcher{}}, nil, nil)
	_, err := svc.Check(context.Background(), models.FactCheckRequest{Content: "O Brasil é o maior produtor de café do mundo.", CheckSources: true})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, s := range exporter.GetSpans() {
		names[s.Name] = true
	}
	for _, expected := range []string{
		"factcheck.check",
		"factcheck.preprocess",
		"factcheck.validate",
		"factcheck.heuristics",
		"factcheck.analyze",
		"factcheck.search_sources",
		"factcheck.consolidate",
	} {
		assert.True(t, names[expected], "missing span %s", expected)
	}
}

func count(items []string, target string) int {
	n := 0
	for _, item := range items {
		if item == target {
			n++
		}
	}
	return n
}
