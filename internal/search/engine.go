package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/metrics"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/textproc"
	"github.com/user/moovie/internal/vector"
)

// Options 引擎参数
type Options struct {
	Weights          textproc.Weights
	CacheSize        int
	PersonSampleSize int
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		Weights:          textproc.DefaultWeights(),
		CacheSize:        DefaultCacheSize,
		PersonSampleSize: DefaultPersonSampleSize,
	}
}

// Snapshot 一次构建的产物：语料、向量索引和它专属的相似度缓存
// 发布后只读，只有缓存会被搜索修改
type Snapshot struct {
	corpus  *corpus.Corpus
	index   *vector.Index
	cache   *similarityCache
	builtAt time.Time
}

// Corpus 快照对应的语料
func (s *Snapshot) Corpus() *corpus.Corpus {
	return s.corpus
}

// Index 快照对应的向量索引
func (s *Snapshot) Index() *vector.Index {
	return s.index
}

// Stats 引擎状态
type Stats struct {
	Ready         bool           `json:"ready"`
	Records       int            `json:"records"`
	Vocabulary    int            `json:"vocabulary"`
	CachedQueries int            `json:"cached_queries"`
	Columns       corpus.Columns `json:"columns"`
	BuiltAt       time.Time      `json:"built_at"`
}

// Engine 搜索服务对象
// 搜索总是读取当前发布的快照；重建在旁路完成后原子替换，进行中的搜索不受影响
type Engine struct {
	opts    Options
	current atomic.Pointer[Snapshot]
}

// NewEngine 创建引擎，构建前调用 Search 会返回 ErrCorpusUnavailable
func NewEngine(opts Options) *Engine {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Weights == (textproc.Weights{}) {
		opts.Weights = textproc.DefaultWeights()
	}
	return &Engine{opts: opts}
}

// Prepare 构建语料与索引，但不发布
func (e *Engine) Prepare(ctx context.Context, records []model.Movie) (*Snapshot, error) {
	c, err := corpus.Build(ctx, records, e.opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("构建语料失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Snapshot{
		corpus:  c,
		index:   vector.Fit(c.Documents()),
		cache:   newSimilarityCache(e.opts.CacheSize),
		builtAt: time.Now(),
	}, nil
}

// Swap 发布快照，旧快照连同其缓存一起被丢弃
func (e *Engine) Swap(s *Snapshot) {
	e.current.Store(s)
	metrics.CorpusSize.Set(float64(s.corpus.Len()))
}

// Build 构建并发布
func (e *Engine) Build(ctx context.Context, records []model.Movie) error {
	start := time.Now()
	s, err := e.Prepare(ctx, records)
	if err != nil {
		metrics.CorpusRebuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	e.Swap(s)
	metrics.CorpusRebuildsTotal.WithLabelValues("success").Inc()
	log.Printf("[Search] 索引构建完成: %d 条记录, 词表 %d, 耗时 %v", s.corpus.Len(), s.index.VocabularySize(), time.Since(start))
	return nil
}

// Ready 是否已有可用快照
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Search 分类查询并返回排序后的前 topN 条
// 空查询或 topN < 1 返回空结果；minScore 只作用于内容检索
func (e *Engine) Search(query string, topN int, minScore float64) (*Result, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrCorpusUnavailable
	}

	res := emptyResult(query)
	if strings.TrimSpace(query) == "" || topN < 1 {
		return res, nil
	}

	start := time.Now()
	res.Type = Classify(query, s.corpus, e.opts.PersonSampleSize)
	if s.corpus.Len() > 0 {
		res.Hits = s.rank(query, res.Type, topN, minScore)
	}

	metrics.SearchTotal.WithLabelValues(string(res.Type)).Inc()
	metrics.SearchDuration.WithLabelValues(string(res.Type)).Observe(time.Since(start).Seconds())
	return res, nil
}

// SearchContent 跳过查询分类，直接按向量相似度检索
// 离线评估用它衡量纯内容检索的排序质量
func (e *Engine) SearchContent(query string, topN int, minScore float64) (*Result, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrCorpusUnavailable
	}

	res := emptyResult(query)
	if strings.TrimSpace(query) == "" || topN < 1 {
		return res, nil
	}
	res.Type = QueryContent
	if s.corpus.Len() > 0 {
		res.Hits = s.rankContent(query, topN, minScore)
	}
	return res, nil
}

// Similarity 查询与每条记录的相似度，按语料顺序
func (e *Engine) Similarity(query string) ([]float64, error) {
	s := e.current.Load()
	if s == nil {
		return nil, ErrCorpusUnavailable
	}
	return s.similarity(textproc.Normalize(query)), nil
}

// Lookup 按 id 取记录，未找到时返回 nil
func (e *Engine) Lookup(id string) *model.Movie {
	s := e.current.Load()
	if s == nil {
		return nil
	}
	m, _ := s.corpus.Lookup(id)
	return m
}

// Current 当前发布的快照，尚未构建时为 nil
func (e *Engine) Current() *Snapshot {
	return e.current.Load()
}

// Corpus 当前发布的语料，尚未构建时为 nil
func (e *Engine) Corpus() *corpus.Corpus {
	s := e.current.Load()
	if s == nil {
		return nil
	}
	return s.corpus
}

// Genres 类型标签及出现次数
func (e *Engine) Genres() []corpus.GenreCount {
	c := e.Corpus()
	if c == nil {
		return []corpus.GenreCount{}
	}
	return c.Genres()
}

func (e *Engine) Stats() Stats {
	s := e.current.Load()
	if s == nil {
		return Stats{}
	}
	return Stats{
		Ready:         true,
		Records:       s.corpus.Len(),
		Vocabulary:    s.index.VocabularySize(),
		CachedQueries: s.cache.len(),
		Columns:       s.corpus.Columns(),
		BuiltAt:       s.builtAt,
	}
}
