package search

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/textproc"
)

const (
	similarityWeight = 0.7
	popularityWeight = 0.3
	blendEpsilon     = 1e-9
)

// SortKey 取排序值，第二个返回值为 false 表示该记录缺失此字段
type SortKey func(m *model.Movie) (float64, bool)

// ByVoteCount 按投票数
func ByVoteCount(m *model.Movie) (float64, bool) {
	if m.VoteCount == nil {
		return 0, false
	}
	return float64(*m.VoteCount), true
}

// ByRating 按评分
func ByRating(m *model.Movie) (float64, bool) {
	if m.Rating == nil {
		return 0, false
	}
	return *m.Rating, true
}

// ByPopularity 按热度
func ByPopularity(m *model.Movie) (float64, bool) {
	if m.Popularity == nil {
		return 0, false
	}
	return float64(*m.Popularity), true
}

// filterKeys 年份/类型/人物：投票数 ↓、评分 ↓、热度 ↓，只使用语料中存在的列
func filterKeys(cols corpus.Columns) []SortKey {
	var keys []SortKey
	if cols.VoteCount {
		keys = append(keys, ByVoteCount)
	}
	if cols.Rating {
		keys = append(keys, ByRating)
	}
	if cols.Popularity {
		keys = append(keys, ByPopularity)
	}
	return keys
}

// titleKeys 标题：评分 ↓、投票数 ↓
func titleKeys(cols corpus.Columns) []SortKey {
	var keys []SortKey
	if cols.Rating {
		keys = append(keys, ByRating)
	}
	if cols.VoteCount {
		keys = append(keys, ByVoteCount)
	}
	return keys
}

// rank 执行一次搜索，调用前已保证查询非空
func (s *Snapshot) rank(query string, qtype QueryType, topN int, minScore float64) []Hit {
	lq := lowerQuery(query)
	cols := s.corpus.Columns()

	switch qtype {
	case QueryGenre:
		rows := s.filter(func(e *corpus.Entry) bool { return strings.Contains(e.LowerGenre, lq) })
		return s.sortFiltered(rows, filterKeys(cols), topN)

	case QueryYear:
		year := ExtractYear(query)
		rows := s.filter(func(e *corpus.Entry) bool { return e.Movie.Year != nil && *e.Movie.Year == year })
		return s.sortFiltered(rows, filterKeys(cols), topN)

	case QueryPerson:
		rows := s.filter(func(e *corpus.Entry) bool {
			return anyContains(e.LowerCast, lq) || anyContains(e.LowerDirector, lq)
		})
		return s.sortFiltered(rows, filterKeys(cols), topN)

	case QueryTitle:
		// 没有命中时直接返回空结果，不回退到内容搜索
		rows := s.filter(func(e *corpus.Entry) bool { return strings.Contains(e.LowerTitle, lq) })
		return s.sortFiltered(rows, titleKeys(cols), topN)

	default:
		return s.rankContent(query, topN, minScore)
	}
}

func (s *Snapshot) filter(pred func(e *corpus.Entry) bool) []int {
	var rows []int
	for i := 0; i < s.corpus.Len(); i++ {
		if pred(s.corpus.Entry(i)) {
			rows = append(rows, i)
		}
	}
	return rows
}

// sortFiltered 排序后截取前 topN 条，过滤命中的分数固定为 1
func (s *Snapshot) sortFiltered(rows []int, keys []SortKey, topN int) []Hit {
	movies := make([]*model.Movie, len(rows))
	for i, r := range rows {
		movies[i] = s.corpus.Entry(r).Movie
	}
	SortMovies(movies, keys...)

	if len(movies) > topN {
		movies = movies[:topN]
	}
	hits := make([]Hit, len(movies))
	for i, m := range movies {
		hits[i] = Hit{Movie: m, Score: 1, Similarity: 1}
	}
	return hits
}

// SortMovies 多键降序稳定排序，缺失值排在最后
func SortMovies(movies []*model.Movie, keys ...SortKey) {
	sort.SliceStable(movies, func(i, j int) bool {
		for _, key := range keys {
			va, oka := key(movies[i])
			vb, okb := key(movies[j])
			if oka != okb {
				return oka
			}
			if !oka || va == vb {
				continue
			}
			return va > vb
		}
		return false
	})
}

// similarity 清洗后的查询串对应的相似度向量（带缓存）
func (s *Snapshot) similarity(normalized string) []float64 {
	return s.cache.get(normalized, func() []float64 {
		return s.index.Similarity(normalized)
	})
}

// rankContent 向量相似度排序，存在投票数列时与归一化投票数加权混合
func (s *Snapshot) rankContent(query string, topN int, minScore float64) []Hit {
	sims := s.similarity(textproc.Normalize(query))
	candidates := topCandidates(sims, topN)

	hits := make([]Hit, 0, len(candidates))
	for _, row := range candidates {
		if sims[row] < minScore {
			continue
		}
		hits = append(hits, Hit{
			Movie:      s.corpus.Entry(row).Movie,
			Score:      sims[row],
			Similarity: sims[row],
		})
	}

	if s.corpus.Columns().VoteCount && len(hits) > 0 {
		blendVotes(hits)
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	}

	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits
}

// blendVotes score = 0.7*相似度 + 0.3*候选集内 min-max 归一化的投票数
// 缺失投票数按 0 处理
func blendVotes(hits []Hit) {
	votes := make([]float64, len(hits))
	lo, hi := 0.0, 0.0
	for i, h := range hits {
		if v, ok := ByVoteCount(h.Movie); ok {
			votes[i] = v
		}
		if i == 0 || votes[i] < lo {
			lo = votes[i]
		}
		if i == 0 || votes[i] > hi {
			hi = votes[i]
		}
	}
	for i := range hits {
		norm := (votes[i] - lo) / (hi - lo + blendEpsilon)
		hits[i].Score = similarityWeight*hits[i].Similarity + popularityWeight*norm
	}
}

// topCandidates 返回相似度最高的 topN 行，按相似度降序，相同分数时行号小的在前
// topN 不小于语料规模时整体排序，否则用大小为 topN 的小顶堆做部分选择
func topCandidates(sims []float64, topN int) []int {
	n := len(sims)
	if topN >= n {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		sort.SliceStable(rows, func(i, j int) bool { return sims[rows[i]] > sims[rows[j]] })
		return rows
	}

	h := &candidateHeap{sims: sims, rows: make([]int, 0, topN)}
	for row := 0; row < n; row++ {
		if h.Len() < topN {
			heap.Push(h, row)
			continue
		}
		if h.worse(h.rows[0], row) {
			h.rows[0] = row
			heap.Fix(h, 0)
		}
	}

	rows := h.rows
	sort.Slice(rows, func(i, j int) bool { return h.worse(rows[j], rows[i]) })
	return rows
}

// candidateHeap 堆顶是当前保留集合中最差的一行
type candidateHeap struct {
	sims []float64
	rows []int
}

// worse a 是否排在 b 之后
func (h *candidateHeap) worse(a, b int) bool {
	if h.sims[a] != h.sims[b] {
		return h.sims[a] < h.sims[b]
	}
	return a > b
}

func (h *candidateHeap) Len() int           { return len(h.rows) }
func (h *candidateHeap) Less(i, j int) bool { return h.worse(h.rows[i], h.rows[j]) }
func (h *candidateHeap) Swap(i, j int)      { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *candidateHeap) Push(x any)         { h.rows = append(h.rows, x.(int)) }
func (h *candidateHeap) Pop() any {
	old := h.rows
	x := old[len(old)-1]
	h.rows = old[:len(old)-1]
	return x
}
