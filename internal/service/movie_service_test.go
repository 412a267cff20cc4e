package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/search"
)

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

func catalog() []model.Movie {
	return []model.Movie{
		{ID: "tt1", Title: "Dune", Genre: []string{"Sci-Fi", "Adventure"}, Year: intPtr(2021), Rating: floatPtr(8.0), VoteCount: int64Ptr(500000)},
		{ID: "tt2", Title: "Arrival", Genre: []string{"Sci-Fi", "Drama"}, Year: intPtr(2016), Rating: floatPtr(7.9), VoteCount: int64Ptr(400000)},
		{ID: "tt3", Title: "Amelie", Genre: []string{"Romance", "Comedy"}, Year: intPtr(2001), Rating: floatPtr(8.3), VoteCount: int64Ptr(300000)},
		{ID: "tt4", Title: "Blade Runner 2049", Genre: []string{"Sci-Fi", "Drama"}, Year: intPtr(2017), Rating: floatPtr(8.0), VoteCount: int64Ptr(600000)},
		{ID: "tt5", Title: "Obscure Drama", Genre: []string{"Drama"}, Rating: floatPtr(9.5), VoteCount: int64Ptr(120)},
		{ID: "tt6", Title: "Unrated Drama", Genre: []string{"Drama"}},
	}
}

func newMovieService(t *testing.T, store MovieLookup) *MovieService {
	t.Helper()
	engine := search.NewEngine(search.DefaultOptions())
	require.NoError(t, engine.Build(context.Background(), catalog()))
	svc := NewMovieService(engine, store)
	svc.InvalidateCaches()
	return svc
}

func TestSearchPaginates(t *testing.T) {
	svc := newMovieService(t, nil)

	page, err := svc.Search("sci-fi", 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, search.QueryGenre, page.QueryType)
	assert.Equal(t, 3, page.TotalResults)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Hits, 2)
	assert.Equal(t, "tt4", page.Hits[0].Movie.ID)
	assert.Equal(t, "tt1", page.Hits[1].Movie.ID)

	page, err = svc.Search("sci-fi", 2, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Hits, 1)
	assert.Equal(t, "tt2", page.Hits[0].Movie.ID)

	page, err = svc.Search("sci-fi", 9, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Hits)
	assert.Equal(t, 9, page.Page)
}

func TestSearchEmptyQueryReturnsEmptyPage(t *testing.T) {
	svc := newMovieService(t, nil)

	page, err := svc.Search("   ", 3, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Hits)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 36, page.PerPage)
}

func TestSearchBeforeBuild(t *testing.T) {
	svc := NewMovieService(search.NewEngine(search.DefaultOptions()), nil)

	_, err := svc.Search("dune", 1, 10, 0)
	assert.ErrorIs(t, err, search.ErrCorpusUnavailable)
	_, _, err = svc.Detail("tt1")
	assert.ErrorIs(t, err, search.ErrCorpusUnavailable)
	_, err = svc.Genres()
	assert.ErrorIs(t, err, search.ErrCorpusUnavailable)
}

func TestDetailWithSimilarMovies(t *testing.T) {
	svc := newMovieService(t, nil)

	movie, similar, err := svc.Detail("tt2")
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Arrival", movie.Title)

	// 共享 sci-fi 或 drama，排除自身和投票数不足的记录，按评分、投票数降序
	ids := make([]string, len(similar))
	for i, m := range similar {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"tt4", "tt1"}, ids)

	_, again, err := svc.Detail("tt2")
	require.NoError(t, err)
	assert.Equal(t, similar, again)
}

func TestDetailFallsBackToStore(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Upsert(&model.Movie{ID: "tt99", Title: "Fresh", Genre: []string{"Sci-Fi"}}))
	svc := newMovieService(t, store)

	movie, similar, err := svc.Detail("tt99")
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Fresh", movie.Title)
	assert.Len(t, similar, 3)

	movie, _, err = svc.Detail("tt404")
	require.NoError(t, err)
	assert.Nil(t, movie)
}

func TestByGenreSortsByRatingThenVotes(t *testing.T) {
	svc := newMovieService(t, nil)

	list, err := svc.ByGenre("Drama", 3)
	require.NoError(t, err)
	assert.Equal(t, 4, list.Total)
	require.Len(t, list.Movies, 3)
	assert.Equal(t, "tt5", list.Movies[0].ID)
	assert.Equal(t, "tt4", list.Movies[1].ID)
	assert.Equal(t, "tt2", list.Movies[2].ID)

	cached, err := svc.ByGenre("drama", 3)
	require.NoError(t, err)
	assert.Same(t, list, cached)

	all, err := svc.ByGenre("drama", 0)
	require.NoError(t, err)
	// 评分缺失的排最后
	assert.Equal(t, "tt6", all.Movies[len(all.Movies)-1].ID)
}

func TestTopRatedRequiresVotes(t *testing.T) {
	svc := newMovieService(t, nil)

	movies, err := svc.TopRated(10)
	require.NoError(t, err)
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"tt3", "tt4", "tt1", "tt2"}, ids)
}

func TestGenresAndLookup(t *testing.T) {
	svc := newMovieService(t, nil)

	genres, err := svc.Genres()
	require.NoError(t, err)
	require.NotEmpty(t, genres)
	assert.Equal(t, "drama", genres[0].Genre)
	assert.Equal(t, 4, genres[0].Count)

	movies := svc.Lookup([]string{"tt3", "missing", "tt1"})
	require.Len(t, movies, 2)
	assert.Equal(t, "tt3", movies[0].ID)
	assert.Equal(t, "tt1", movies[1].ID)
}
