// Package corpus 内存语料：电影记录 + 派生字段 + 列能力标记
package corpus

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/textproc"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateID 语料中出现重复 id
var ErrDuplicateID = errors.New("duplicate movie id")

// genreSeparator 类型标签分隔符
var genreSeparator = regexp.MustCompile(`[,/|]`)

// Columns 语料级别的列能力标记，构建时计算一次
// 某列只要有一条记录带值就视为存在
type Columns struct {
	Genre      bool
	Cast       bool
	Director   bool
	Rating     bool
	VoteCount  bool
	Popularity bool
}

// Entry 一条记录及其派生字段
type Entry struct {
	Movie *model.Movie

	NormalizedTitle  string
	NormalizedPlot   string
	NormalizedGenre  string
	WeightedDocument string

	// 小写形式，供子串匹配使用
	LowerTitle    string
	LowerGenre    string
	LowerCast     []string
	LowerDirector []string
}

// Corpus 构建后只读
type Corpus struct {
	entries []Entry
	byID    map[string]int
	columns Columns
	genres  map[string]int
	titles  map[string]struct{}
}

// Build 从记录构建语料，记录会被复制，调用方后续修改不影响语料
func Build(ctx context.Context, records []model.Movie, weights textproc.Weights) (*Corpus, error) {
	c := &Corpus{
		entries: make([]Entry, len(records)),
		byID:    make(map[string]int, len(records)),
		genres:  make(map[string]int),
	}

	for i := range records {
		m := records[i]
		m.Normalize()
		if m.ID == "" {
			return nil, fmt.Errorf("第 %d 条记录缺少 id", i)
		}
		if _, ok := c.byID[m.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		c.byID[m.ID] = i
		c.entries[i].Movie = &m
		c.observe(&m)
	}

	// 文本清洗是构建阶段最耗时的部分，按 CPU 数分片并行
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range c.entries {
		e := &c.entries[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			derive(e, weights)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.titles = make(map[string]struct{}, len(c.entries))
	for i := range c.entries {
		c.titles[c.entries[i].LowerTitle] = struct{}{}
	}

	return c, nil
}

func (c *Corpus) observe(m *model.Movie) {
	if len(m.Genre) > 0 {
		c.columns.Genre = true
	}
	if len(m.Cast) > 0 {
		c.columns.Cast = true
	}
	if len(m.Director) > 0 {
		c.columns.Director = true
	}
	if m.Rating != nil {
		c.columns.Rating = true
	}
	if m.VoteCount != nil {
		c.columns.VoteCount = true
	}
	if m.Popularity != nil {
		c.columns.Popularity = true
	}
	for _, label := range SplitGenres(m.Genre) {
		c.genres[label]++
	}
}

func derive(e *Entry, weights textproc.Weights) {
	m := e.Movie
	genreText := m.GenreText()

	f := textproc.NormalizeFields(m.Title, genreText, m.PlotText())
	e.NormalizedTitle = f.Title
	e.NormalizedGenre = f.Genre
	e.NormalizedPlot = f.Plot
	e.WeightedDocument = textproc.BuildDocument(f, weights)

	e.LowerTitle = strings.ToLower(m.Title)
	e.LowerGenre = strings.ToLower(genreText)
	e.LowerCast = lowerAll(m.Cast)
	e.LowerDirector = lowerAll(m.Director)
}

func lowerAll(items []string) []string {
	res := make([]string, len(items))
	for i, s := range items {
		res[i] = strings.ToLower(s)
	}
	return res
}

// SplitGenres 把类型列表拆成小写的单个标签，"Sci-Fi/Fantasy" -> ["sci-fi", "fantasy"]
func SplitGenres(genres []string) []string {
	var res []string
	for _, g := range genres {
		for _, part := range genreSeparator.Split(g, -1) {
			if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
				res = append(res, s)
			}
		}
	}
	return res
}

// Len 记录数
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Entry 第 i 条记录
func (c *Corpus) Entry(i int) *Entry {
	return &c.entries[i]
}

// Entries 全部记录（只读）
func (c *Corpus) Entries() []Entry {
	return c.entries
}

// Documents 加权文档，顺序与记录一致
func (c *Corpus) Documents() []string {
	docs := make([]string, len(c.entries))
	for i := range c.entries {
		docs[i] = c.entries[i].WeightedDocument
	}
	return docs
}

// Lookup 根据 id 查找记录
func (c *Corpus) Lookup(id string) (*model.Movie, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.entries[i].Movie, true
}

// Columns 列能力标记
func (c *Corpus) Columns() Columns {
	return c.columns
}

// HasGenre 是否存在该类型标签（小写精确匹配）
func (c *Corpus) HasGenre(label string) bool {
	_, ok := c.genres[label]
	return ok
}

// HasTitle 是否存在该标题（小写精确匹配）
func (c *Corpus) HasTitle(lowerTitle string) bool {
	_, ok := c.titles[lowerTitle]
	return ok
}

// GenreCount 类型标签及其出现次数
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Genres 所有类型标签，按出现次数降序
func (c *Corpus) Genres() []GenreCount {
	res := make([]GenreCount, 0, len(c.genres))
	for g, n := range c.genres {
		res = append(res, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Genre < res[j].Genre
	})
	return res
}
