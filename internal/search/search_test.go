package search

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/textproc"
)

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func sampleRecords() []model.Movie {
	return []model.Movie{
		{ID: "tt1", Title: "Dune", Genre: []string{"Sci-Fi"}, Year: intPtr(2021), Rating: floatPtr(8.0), VoteCount: int64Ptr(500000),
			Director: []string{"Denis Villeneuve"}, Plot: strPtr("A noble family becomes embroiled in a war for a desert planet.")},
		{ID: "tt2", Title: "Arrival", Genre: []string{"Sci-Fi"}, Year: intPtr(2016), Rating: floatPtr(7.9), VoteCount: int64Ptr(400000),
			Director: []string{"Denis Villeneuve"}, Plot: strPtr("A linguist works with the military to communicate with alien lifeforms.")},
		{ID: "tt3", Title: "Amelie", Genre: []string{"Romance"}, Year: intPtr(2001), Rating: floatPtr(8.3), VoteCount: int64Ptr(300000),
			Director: []string{"Jean-Pierre Jeunet"}, Plot: strPtr("A shy waitress decides to change the lives of those around her.")},
	}
}

func newTestEngine(t *testing.T, records []model.Movie) *Engine {
	t.Helper()
	e := NewEngine(DefaultOptions())
	require.NoError(t, e.Build(context.Background(), records))
	return e
}

func TestSearchGenreSortsByVoteCount(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	res, err := e.Search("sci-fi", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryGenre, res.Type)
	assert.Equal(t, []string{"tt1", "tt2"}, res.IDs())
	for _, h := range res.Hits {
		assert.Equal(t, 1.0, h.Score)
		assert.Equal(t, 1.0, h.Similarity)
	}
}

func TestSearchYearMatchesExactly(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	res, err := e.Search("2021", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryYear, res.Type)
	assert.Equal(t, []string{"tt1"}, res.IDs())
}

func TestSearchPersonMatchesDirector(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	res, err := e.Search("Villeneuve", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryPerson, res.Type)
	assert.Equal(t, []string{"tt1", "tt2"}, res.IDs())
}

func TestSearchTruncatesToTopN(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	res, err := e.Search("sci-fi", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1"}, res.IDs())
}

func TestClassifierPriorityOrder(t *testing.T) {
	assert.Equal(t, []QueryType{QueryYear, QueryGenre, QueryPerson, QueryTitle, QueryContent}, ClassificationOrder())

	records := []model.Movie{
		{ID: "a", Title: "Nolan", Genre: []string{"Action"}, Cast: []string{"Action Bronson"}, Director: []string{"Christopher Nolan"}},
		{ID: "b", Title: "Heat", Genre: []string{"Crime"}},
	}
	e := newTestEngine(t, records)
	c := e.Corpus()

	cases := []struct {
		query string
		want  QueryType
	}{
		// 同时是类型标签和年份时年份优先
		{"action 1999", QueryYear},
		{"1999", QueryYear},
		// 同时匹配类型和演员
		{"action", QueryGenre},
		{"Crime", QueryGenre},
		// 同时匹配导演和标题
		{"nolan", QueryPerson},
		{"heat", QueryTitle},
		{"  HEAT ", QueryTitle},
		{"a heist in los angeles", QueryContent},
		// 年份必须是独立的四位数
		{"12021", QueryContent},
		{"1899", QueryContent},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.query, c, DefaultPersonSampleSize), tc.query)
	}
}

func TestClassifierPersonSample(t *testing.T) {
	records := []model.Movie{
		{ID: "a", Title: "First", Cast: []string{"Someone Else"}},
		{ID: "b", Title: "Second", Cast: []string{"Zed Person"}},
	}
	e := newTestEngine(t, records)

	assert.Equal(t, QueryContent, Classify("zed person", e.Corpus(), 1))
	assert.Equal(t, QueryPerson, Classify("zed person", e.Corpus(), 0))
	assert.Equal(t, QueryPerson, Classify("zed person", e.Corpus(), 2))
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, 2021, ExtractYear("best of 2021"))
	assert.Equal(t, 1994, ExtractYear("1994 2001"))
	assert.Equal(t, 0, ExtractYear("no year here"))
}

func TestFilterSortPlacesNullsLast(t *testing.T) {
	records := []model.Movie{
		{ID: "a", Title: "Unknown Votes", Year: intPtr(2000), Rating: floatPtr(9.0)},
		{ID: "b", Title: "Few Votes", Year: intPtr(2000), Rating: floatPtr(5.0), VoteCount: int64Ptr(10)},
		{ID: "c", Title: "Tie Low", Year: intPtr(2000), VoteCount: int64Ptr(10)},
		{ID: "d", Title: "Other Year", Year: intPtr(1990), VoteCount: int64Ptr(99)},
	}
	e := newTestEngine(t, records)

	res, err := e.Search("2000", 10, 0)
	require.NoError(t, err)
	// 投票数相同时按评分，评分缺失的排后面
	assert.Equal(t, []string{"b", "c", "a"}, res.IDs())
}

func TestTitleSortsByRating(t *testing.T) {
	records := []model.Movie{
		{ID: "a", Title: "Heat", Rating: floatPtr(8.3), VoteCount: int64Ptr(700000)},
		{ID: "b", Title: "Heat Wave", Rating: floatPtr(8.5), VoteCount: int64Ptr(10)},
		{ID: "c", Title: "Cold", Rating: floatPtr(9.9), VoteCount: int64Ptr(10)},
	}
	e := newTestEngine(t, records)

	res, err := e.Search("heat", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryTitle, res.Type)
	assert.Equal(t, []string{"b", "a"}, res.IDs())
}

func blendRecords() []model.Movie {
	plot := strPtr("Explorers cross a desert planet.")
	return []model.Movie{
		{ID: "low", Title: "Alpha", Plot: plot, VoteCount: int64Ptr(100)},
		{ID: "high", Title: "Beta", Plot: plot, VoteCount: int64Ptr(100000)},
		{ID: "none", Title: "Gamma", Plot: strPtr("Cooking show.")},
	}
}

func TestContentBlendFavoursVoteCount(t *testing.T) {
	e := newTestEngine(t, blendRecords())

	sims, err := e.Similarity("desert planet")
	require.NoError(t, err)
	require.InDelta(t, sims[0], sims[1], 1e-12)
	require.Greater(t, sims[0], 0.0)

	res, err := e.Search("desert planet", 10, 0.01)
	require.NoError(t, err)
	assert.Equal(t, QueryContent, res.Type)
	require.Equal(t, []string{"high", "low"}, res.IDs())
	assert.Greater(t, res.Hits[0].Score, res.Hits[1].Score)
	assert.InDelta(t, 0.7*sims[1]+0.3, res.Hits[0].Score, 1e-6)
	assert.InDelta(t, 0.7*sims[0], res.Hits[1].Score, 1e-6)
}

func TestContentMinScoreIsInclusive(t *testing.T) {
	records := []model.Movie{
		{ID: "a", Title: "Alpha", Plot: strPtr("A desert planet with giant worms.")},
		{ID: "b", Title: "Beta", Plot: strPtr("A planet of oceans.")},
		{ID: "c", Title: "Gamma", Plot: strPtr("Cooking show.")},
	}
	e := newTestEngine(t, records)

	sims, err := e.Similarity("desert planet")
	require.NoError(t, err)
	require.Greater(t, sims[0], sims[1])
	require.Greater(t, sims[1], 0.0)

	res, err := e.Search("desert planet", 10, sims[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.IDs())
	// 没有投票数列时分数就是相似度
	assert.Equal(t, sims[1], res.Hits[1].Score)

	res, err = e.Search("desert planet", 10, math.Nextafter(sims[1], 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.IDs())
}

func TestContentCacheKeyedByNormalizedQuery(t *testing.T) {
	e := newTestEngine(t, blendRecords())

	first, err := e.Search("Desert PLANET!", 10, 0)
	require.NoError(t, err)
	second, err := e.Search("desert planet", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, first.IDs(), second.IDs())
	assert.Equal(t, 1, e.Stats().CachedQueries)

	a, err := e.Similarity("Desert, planet.")
	require.NoError(t, err)
	b, err := e.Similarity("desert planet")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, e.Stats().CachedQueries)
}

func TestContentCacheEvictsLeastRecentlyUsed(t *testing.T) {
	opts := DefaultOptions()
	opts.CacheSize = 2
	e := NewEngine(opts)
	require.NoError(t, e.Build(context.Background(), blendRecords()))

	search := func(q string) {
		res, err := e.Search(q, 10, 0)
		require.NoError(t, err)
		require.Equal(t, QueryContent, res.Type, q)
	}
	cached := func(q string) bool {
		return e.current.Load().cache.contains(textproc.Normalize(q))
	}

	search("desert planet")
	search("giant worms")
	search("desert planet")
	search("cooking show")
	assert.Equal(t, 2, e.Stats().CachedQueries)
	assert.True(t, cached("desert planet"))
	assert.False(t, cached("giant worms"))
	assert.True(t, cached("cooking show"))

	search("ocean voyage")
	assert.Equal(t, 2, e.Stats().CachedQueries)
	assert.False(t, cached("desert planet"))
	assert.True(t, cached("cooking show"))
	assert.True(t, cached("ocean voyage"))
}

func TestContentSearchSelectsBeforeBlending(t *testing.T) {
	plot := strPtr("Explorers cross a desert planet.")
	records := []model.Movie{
		{ID: "a", Title: "Alpha", Plot: plot, VoteCount: int64Ptr(100)},
		{ID: "b", Title: "Beta", Plot: plot, VoteCount: int64Ptr(100000)},
		{ID: "c", Title: "Gamma", Plot: strPtr("A desert city at night."), VoteCount: int64Ptr(5000000)},
		{ID: "d", Title: "Delta", Plot: strPtr("Cooking show."), VoteCount: int64Ptr(10)},
		{ID: "e", Title: "Epsilon", Plot: strPtr("Ocean voyage."), VoteCount: int64Ptr(20)},
	}
	e := newTestEngine(t, records)

	sims, err := e.Similarity("desert planet")
	require.NoError(t, err)
	require.InDelta(t, sims[0], sims[1], 1e-12)
	require.Greater(t, sims[2], 0.0)
	require.Greater(t, sims[1], sims[2])

	// topN 小于语料规模：先按相似度取前两条，再在候选集内混合投票数
	res, err := e.Search("desert planet", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryContent, res.Type)
	require.Equal(t, []string{"b", "a"}, res.IDs())
	assert.InDelta(t, 0.7*sims[1]+0.3, res.Hits[0].Score, 1e-6)
	assert.InDelta(t, 0.7*sims[0], res.Hits[1].Score, 1e-6)

	res, err = e.Search("desert planet", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "c", res.IDs()[0])
}

func TestSearchContentBypassesClassifier(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	res, err := e.Search("Dune", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryTitle, res.Type)
	assert.Equal(t, []string{"tt1"}, res.IDs())

	res, err = e.SearchContent("Dune", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, QueryContent, res.Type)
	require.Len(t, res.Hits, 3)
	assert.Equal(t, "tt1", res.Hits[0].Movie.ID)

	res, err = e.SearchContent("  ", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	_, err = NewEngine(DefaultOptions()).SearchContent("Dune", 10, 0)
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}

func TestSearchEmptyQuery(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := e.Search(q, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, res.Hits)
		assert.NotNil(t, res.Hits)
	}

	res, err := e.Search("sci-fi", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearchBeforeBuild(t *testing.T) {
	e := NewEngine(DefaultOptions())
	assert.False(t, e.Ready())

	_, err := e.Search("dune", 10, 0)
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
	_, err = e.Similarity("dune")
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
	assert.Nil(t, e.Lookup("tt1"))
	assert.Empty(t, e.Genres())
}

func TestSearchEmptyCorpus(t *testing.T) {
	e := newTestEngine(t, nil)

	res, err := e.Search("anything at all", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Equal(t, 0, e.Stats().Records)
}

func TestBuildSwapsSnapshot(t *testing.T) {
	e := newTestEngine(t, sampleRecords())
	require.NotNil(t, e.Lookup("tt1"))

	_, err := e.Similarity("desert")
	require.NoError(t, err)
	require.Equal(t, 1, e.Stats().CachedQueries)

	require.NoError(t, e.Build(context.Background(), sampleRecords()[1:]))
	assert.Nil(t, e.Lookup("tt1"))
	assert.Equal(t, 2, e.Stats().Records)
	assert.Equal(t, 0, e.Stats().CachedQueries)

	res, err := e.Search("2021", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestBuildFailureKeepsPreviousSnapshot(t *testing.T) {
	e := newTestEngine(t, sampleRecords())

	dup := append(sampleRecords(), sampleRecords()[0])
	require.Error(t, e.Build(context.Background(), dup))
	assert.Equal(t, 3, e.Stats().Records)
}

func TestConcurrentSearchDuringRebuild(t *testing.T) {
	e := newTestEngine(t, sampleRecords())
	queries := []string{"sci-fi", "2016", "villeneuve", "arrival", "desert war", "alien linguist"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := e.Search(queries[(i+j)%len(queries)], 10, 0)
				assert.NoError(t, err)
			}
		}(i)
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Build(context.Background(), sampleRecords()))
	}
	wg.Wait()
}

func TestTopCandidates(t *testing.T) {
	sims := []float64{0.1, 0.5, 0.5, 0.9, 0.2}

	assert.Equal(t, []int{3, 1, 2}, topCandidates(sims, 3))
	assert.Equal(t, []int{3}, topCandidates(sims, 1))
	assert.Equal(t, []int{3, 1, 2, 4, 0}, topCandidates(sims, 5))
	assert.Equal(t, []int{3, 1, 2, 4, 0}, topCandidates(sims, 100))
}
