// Package search 查询分类与排序引擎
//
// 调用方只需要 Engine.Search：先按固定优先级判断查询类型
// （年份 → 类型 → 人物 → 标题 → 内容），再按类型选择过滤或向量相似度策略排序。
package search

import (
	"errors"

	"github.com/user/moovie/internal/model"
)

// QueryType 查询类型
type QueryType string

const (
	QueryYear    QueryType = "year"
	QueryGenre   QueryType = "genre"
	QueryPerson  QueryType = "person"
	QueryTitle   QueryType = "title"
	QueryContent QueryType = "content"
)

// ErrCorpusUnavailable 语料尚未构建就发起搜索，属于调用方的编程错误
var ErrCorpusUnavailable = errors.New("search: corpus has not been built")

// Hit 一条命中结果
// 过滤类查询（年份/类型/人物/标题）的 Score 与 Similarity 固定为 1
type Hit struct {
	Movie      *model.Movie `json:"movie"`
	Score      float64      `json:"score"`
	Similarity float64      `json:"similarity"`
}

// Result 搜索结果
type Result struct {
	Query string    `json:"query"`
	Type  QueryType `json:"query_type"`
	Hits  []Hit     `json:"hits"`
}

// IDs 命中记录的 id，按排序顺序
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.Movie.ID
	}
	return ids
}

func emptyResult(query string) *Result {
	return &Result{Query: query, Hits: []Hit{}}
}
