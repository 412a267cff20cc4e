package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/utils"
)

const (
	// SearchCandidates 分页前一次取回的候选数
	SearchCandidates = 1000

	similarLimit    = 12
	similarMinVotes = 50000
	topRatedVotes   = 50000
	genreCacheTTL   = 5 * time.Minute
)

// MovieLookup 语料中找不到时的兜底查询
type MovieLookup interface {
	FindByID(id string) (*model.Movie, error)
}

// MovieService 面向 API 的电影查询服务
type MovieService struct {
	engine  *search.Engine
	store   MovieLookup
	similar *utils.TTLCache[[]*model.Movie]
}

// NewMovieService store 可以为 nil
func NewMovieService(engine *search.Engine, store MovieLookup) *MovieService {
	if utils.Cache == nil {
		utils.InitCache()
	}
	return &MovieService{
		engine:  engine,
		store:   store,
		similar: utils.NewTTLCache[[]*model.Movie](1000, 10*time.Minute),
	}
}

// SearchPage 一页搜索结果
type SearchPage struct {
	Hits         []search.Hit     `json:"data"`
	Query        string           `json:"query"`
	QueryType    search.QueryType `json:"query_type"`
	Page         int              `json:"page"`
	PerPage      int              `json:"per_page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
}

// Search 搜索并分页，空查询返回空页
func (s *MovieService) Search(query string, page, perPage int, minScore float64) (*SearchPage, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 36
	}

	res := &SearchPage{Hits: []search.Hit{}, Query: query, Page: page, PerPage: perPage, TotalPages: 1}
	if query == "" {
		res.Page = 1
		return res, nil
	}

	result, err := s.engine.Search(query, SearchCandidates, minScore)
	if err != nil {
		return nil, err
	}

	res.QueryType = result.Type
	res.TotalResults = len(result.Hits)
	res.TotalPages = (res.TotalResults + perPage - 1) / perPage
	if res.TotalPages < 1 {
		res.TotalPages = 1
	}

	start := (page - 1) * perPage
	if start < len(result.Hits) {
		end := start + perPage
		if end > len(result.Hits) {
			end = len(result.Hits)
		}
		res.Hits = result.Hits[start:end]
	}
	return res, nil
}

// Detail 电影详情与相似推荐，未找到时返回 nil
func (s *MovieService) Detail(id string) (*model.Movie, []*model.Movie, error) {
	c := s.engine.Corpus()
	if c == nil {
		return nil, nil, search.ErrCorpusUnavailable
	}

	movie, ok := c.Lookup(id)
	if !ok {
		if s.store == nil {
			return nil, nil, nil
		}
		m, err := s.store.FindByID(id)
		if err != nil || m == nil {
			return nil, nil, err
		}
		movie = m
	}

	if cached, ok := s.similar.Get(id); ok {
		return movie, cached, nil
	}
	similar := Similar(c, movie, similarLimit)
	s.similar.Set(id, similar)
	return movie, similar, nil
}

// Similar 与 movie 至少共享一个类型、投票数超过阈值的其他电影，按评分、投票数降序
func Similar(c *corpus.Corpus, movie *model.Movie, limit int) []*model.Movie {
	genres := make([]string, 0, len(movie.Genre))
	for _, g := range movie.Genre {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			genres = append(genres, g)
		}
	}
	res := []*model.Movie{}
	if len(genres) == 0 {
		return res
	}

	for i := 0; i < c.Len(); i++ {
		e := c.Entry(i)
		m := e.Movie
		if m.ID == movie.ID || m.VoteCount == nil || *m.VoteCount <= similarMinVotes {
			continue
		}
		for _, g := range genres {
			if strings.Contains(e.LowerGenre, g) {
				res = append(res, m)
				break
			}
		}
	}

	search.SortMovies(res, search.ByRating, search.ByVoteCount)
	if len(res) > limit {
		res = res[:limit]
	}
	return res
}

// GenreList 某类型下的电影
type GenreList struct {
	Movies []*model.Movie `json:"data"`
	Total  int            `json:"total"`
}

// ByGenre 类型包含 genre 的电影，按评分、投票数降序，结果缓存 5 分钟
func (s *MovieService) ByGenre(genre string, limit int) (*GenreList, error) {
	c := s.engine.Corpus()
	if c == nil {
		return nil, search.ErrCorpusUnavailable
	}
	if limit < 1 {
		limit = 20
	}

	genre = strings.ToLower(strings.TrimSpace(genre))
	key := utils.CacheKey("genre", genre, strconv.Itoa(limit))
	if v, ok := utils.CacheGet(key); ok {
		return v.(*GenreList), nil
	}

	var movies []*model.Movie
	for i := 0; i < c.Len(); i++ {
		if e := c.Entry(i); genre != "" && strings.Contains(e.LowerGenre, genre) {
			movies = append(movies, e.Movie)
		}
	}
	search.SortMovies(movies, search.ByRating, search.ByVoteCount)

	res := &GenreList{Movies: []*model.Movie{}, Total: len(movies)}
	if len(movies) > limit {
		movies = movies[:limit]
	}
	res.Movies = append(res.Movies, movies...)

	utils.CacheSet(key, res, genreCacheTTL)
	return res, nil
}

// TopRated 投票数足够多的高分电影
func (s *MovieService) TopRated(limit int) ([]*model.Movie, error) {
	c := s.engine.Corpus()
	if c == nil {
		return nil, search.ErrCorpusUnavailable
	}
	if limit < 1 {
		limit = 20
	}

	movies := []*model.Movie{}
	for i := 0; i < c.Len(); i++ {
		m := c.Entry(i).Movie
		if m.Rating != nil && m.VoteCount != nil && *m.VoteCount >= topRatedVotes {
			movies = append(movies, m)
		}
	}
	search.SortMovies(movies, search.ByRating, search.ByVoteCount)
	if len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// Genres 所有类型标签及数量
func (s *MovieService) Genres() ([]corpus.GenreCount, error) {
	if !s.engine.Ready() {
		return nil, search.ErrCorpusUnavailable
	}
	return s.engine.Genres(), nil
}

// Lookup 按 id 批量取电影，找不到的跳过
func (s *MovieService) Lookup(ids []string) []*model.Movie {
	res := make([]*model.Movie, 0, len(ids))
	for _, id := range ids {
		if m := s.engine.Lookup(id); m != nil {
			res = append(res, m)
		}
	}
	return res
}

// InvalidateCaches 新语料发布后清理依赖旧语料的缓存
func (s *MovieService) InvalidateCaches() {
	s.similar.Purge()
	utils.CacheClear()
}
