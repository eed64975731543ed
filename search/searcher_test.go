package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/knowit/ai/mock"
	"github.com/poiesic/knowit/core"
	"github.com/poiesic/knowit/index"
	"github.com/poiesic/knowit/router"
	badgerstore "github.com/poiesic/knowit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(t *testing.T, rules []router.Rule, opts ...Option) (*Searcher, *index.Index, *mock.MockEmbedder) {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	idx, err := index.NewIndex(repo, embedder)
	require.NoError(t, err)

	searcher, err := NewSearcher(idx, router.NewRouter(rules), opts...)
	require.NoError(t, err)
	return searcher, idx, embedder
}

func put(t *testing.T, idx *index.Index, chunks ...*core.Chunk) {
	t.Helper()
	require.NoError(t, idx.Put(context.Background(), chunks...))
}

func TestSearch_EmptyIndex(t *testing.T) {
	searcher, _, _ := newTestSearcher(t, nil)

	results := searcher.Search(context.Background(), "anything", 3)
	assert.Nil(t, results)
}

func TestSearch_ExactMatchOutranksVector(t *testing.T) {
	searcher, idx, _ := newTestSearcher(t, nil)
	ctx := context.Background()

	put(t, idx,
		&core.Chunk{Source: "02_leadership.md", Ordinal: 0, Text: "Ректор университета — Бегентаев Мейрам Мухаметрахимович."},
		&core.Chunk{Source: "01_general_info.md", Ordinal: 0, Text: "Университет расположен в центре города."},
	)

	results := searcher.Search(ctx, "Бегентаев", 3)
	require.NotEmpty(t, results)

	assert.Equal(t, core.TierExact, results[0].Tier)
	assert.Contains(t, results[0].Chunk.Text, "Бегентаев")
	assert.InDelta(t, 0.1, float64(results[0].Distance), 1e-6)
}

func TestSearch_KeywordPullsWholeFile(t *testing.T) {
	rules := []router.Rule{{Pattern: "стипенди", Source: "09_student_life.md"}}
	searcher, idx, embedder := newTestSearcher(t, rules)
	ctx := context.Background()

	// Pin the embedding geometry: the query aligns with the general chunks,
	// so the vector top-k never reaches the student life file and only the
	// keyword signal can pull its chunks.
	vectors := map[string][]float32{
		"Адрес главного корпуса.":  {1, 0},
		"Схема проезда к кампусу.": {0.95, 0.3122499},
		"История университета.":    {0.9, 0.4358899},
		"Государственная выплата назначается по итогам сессии.": {0, 1},
		"Повышенная выплата за отличную учёбу.":                 {0.1, 0.9949874},
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = vectors[text]
		}
		return out, nil
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	put(t, idx,
		&core.Chunk{Source: "09_student_life.md", Ordinal: 0, Text: "Государственная выплата назначается по итогам сессии."},
		&core.Chunk{Source: "09_student_life.md", Ordinal: 1, Text: "Повышенная выплата за отличную учёбу."},
		&core.Chunk{Source: "01_general_info.md", Ordinal: 0, Text: "Адрес главного корпуса."},
		&core.Chunk{Source: "01_general_info.md", Ordinal: 1, Text: "Схема проезда к кампусу."},
		&core.Chunk{Source: "01_general_info.md", Ordinal: 2, Text: "История университета."},
	)

	// The query word never appears in the chunk texts, so only the keyword
	// signal can find these chunks.
	results := searcher.Search(ctx, "как получить стипендию", 3)
	require.NotEmpty(t, results)

	var keywordTexts []string
	for _, r := range results {
		if r.Tier == core.TierKeyword {
			keywordTexts = append(keywordTexts, r.Chunk.Text)
			assert.Equal(t, "09_student_life.md", r.Chunk.Source)
			assert.InDelta(t, 0.5, float64(r.Distance), 1e-6)
		}
	}
	assert.Len(t, keywordTexts, 2, "every chunk of the routed file is pulled")
}

func TestSearch_DedupPrefersHigherTier(t *testing.T) {
	rules := []router.Rule{{Pattern: "экзамен", Source: "04_study_process.md"}}
	searcher, idx, _ := newTestSearcher(t, rules)
	ctx := context.Background()

	put(t, idx,
		&core.Chunk{Source: "04_study_process.md", Ordinal: 0, Text: "Экзамены проводятся в конце каждого семестра."},
	)

	// The single chunk matches all three signals: exact (substring),
	// vector (only chunk), keyword (routed file). It must appear once, at
	// the exact tier.
	results := searcher.Search(ctx, "экзамен", 3)
	require.Len(t, results, 1)
	assert.Equal(t, core.TierExact, results[0].Tier)
}

func TestSearch_ResultFloor(t *testing.T) {
	rules := []router.Rule{{Pattern: "справк", Source: "07_services.md"}}
	searcher, idx, _ := newTestSearcher(t, rules)
	ctx := context.Background()

	// 12 distinct chunks in the routed file; topK=3 would starve the
	// keyword pull without the floor of 10.
	var chunks []*core.Chunk
	for i := 0; i < 12; i++ {
		chunks = append(chunks, &core.Chunk{
			Source:  "07_services.md",
			Ordinal: i,
			Text:    fmt.Sprintf("Раздел %d о порядке выдачи документов студентам.", i),
		})
	}
	put(t, idx, chunks...)

	results := searcher.Search(ctx, "где взять справку", 3)
	assert.Len(t, results, 10, "fused results are capped at max(topK, 10)")
}

func TestSearch_DegradesOnEmbedderFailure(t *testing.T) {
	rules := []router.Rule{{Pattern: "общежити", Source: "08_dormitory.md"}}
	searcher, idx, embedder := newTestSearcher(t, rules)
	ctx := context.Background()

	put(t, idx,
		&core.Chunk{Source: "08_dormitory.md", Ordinal: 0, Text: "Заселение начинается в августе."},
	)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	results := searcher.Search(ctx, "общежитие", 3)
	require.Len(t, results, 1, "keyword signal still contributes")
	assert.Equal(t, core.TierKeyword, results[0].Tier)
}

func TestSearch_OrderedByDistance(t *testing.T) {
	searcher, idx, _ := newTestSearcher(t, nil)
	ctx := context.Background()

	put(t, idx,
		&core.Chunk{Source: "a.md", Ordinal: 0, Text: "Первый фрагмент базы знаний."},
		&core.Chunk{Source: "a.md", Ordinal: 1, Text: "Второй фрагмент базы знаний."},
		&core.Chunk{Source: "a.md", Ordinal: 2, Text: "Третий фрагмент базы знаний."},
	)

	results := searcher.Search(ctx, "фрагмент базы", 5)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestSearch_MonitorObservesSignals(t *testing.T) {
	rules := []router.Rule{{Pattern: "клуб", Source: "09_student_life.md"}}
	searcher, idx, _ := newTestSearcher(t, rules)
	ctx := context.Background()

	put(t, idx,
		&core.Chunk{Source: "09_student_life.md", Ordinal: 0, Text: "Список студенческих объединений."},
	)

	monitor := &recordingMonitor{}
	results := searcher.SearchWithMonitor(ctx, "клуб робототехники", 3, monitor)
	require.NotEmpty(t, results)

	assert.Equal(t, "клуб робототехники", monitor.query)
	assert.Equal(t, []string{"09_student_life.md"}, monitor.sources)
	assert.Equal(t, len(results), len(monitor.finished))
}

type recordingMonitor struct {
	query    string
	sources  []string
	finished []*core.SearchResult
}

func (m *recordingMonitor) Start(query string)                          { m.query = query }
func (m *recordingMonitor) AfterExactScan(_ []*core.SearchResult)       {}
func (m *recordingMonitor) AfterVectorSearch(_ []*core.SearchResult)    {}
func (m *recordingMonitor) AfterKeywordRouting(sources []string, _ []*core.SearchResult) {
	m.sources = sources
}
func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finished = results }

func TestGetContext(t *testing.T) {
	searcher, idx, _ := newTestSearcher(t, nil, WithTopK(3))
	ctx := context.Background()

	t.Run("no results", func(t *testing.T) {
		got := searcher.GetContext(ctx, "anything")
		assert.Equal(t, NoResultsMessage, got)
	})

	put(t, idx,
		&core.Chunk{Source: "10_contacts.md", Ordinal: 0, Text: "Приёмная комиссия: +7 700 000 00 00."},
		&core.Chunk{Source: "01_general_info.md", Ordinal: 0, Text: "Главный корпус открыт с 8:00."},
	)

	t.Run("formats blocks", func(t *testing.T) {
		got := searcher.GetContext(ctx, "Приёмная комиссия")
		assert.True(t, strings.HasPrefix(got, "[Source 1: 10_contacts.md]\n"), "got: %s", got)
		assert.Contains(t, got, "Приёмная комиссия: +7 700 000 00 00.")

		if strings.Contains(got, "[Source 2:") {
			assert.Contains(t, got, "\n\n---\n\n")
		}
	})
}

func TestNewSearcher_Validation(t *testing.T) {
	_, err := NewSearcher(nil, router.NewRouter(nil))
	assert.ErrorIs(t, err, ErrIndexRequired)

	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	idx, err := index.NewIndex(repo, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = NewSearcher(idx, nil)
	assert.ErrorIs(t, err, ErrRouterRequired)
}
