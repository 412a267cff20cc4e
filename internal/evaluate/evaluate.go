// Package evaluate 用带标注的查询集评估检索质量（P@K 与 MAP）
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/user/moovie/internal/search"
	"golang.org/x/sync/errgroup"
)

// DefaultK P@K 的 K
const DefaultK = 10

// Query 一条带标注的查询
type Query struct {
	Query    string   `json:"query"`
	Relevant []string `json:"relevant"`
}

// Searcher 被评估的检索接口
type Searcher interface {
	Search(query string, topN int, minScore float64) (*search.Result, error)
}

// ContentSearcher 只做内容检索的接口
type ContentSearcher interface {
	SearchContent(query string, topN int, minScore float64) (*search.Result, error)
}

type contentOnly struct {
	s ContentSearcher
}

func (c contentOnly) Search(query string, topN int, minScore float64) (*search.Result, error) {
	return c.s.SearchContent(query, topN, minScore)
}

// ContentOnly 所有查询都按内容查询评估，不经过年份/类型/人物/标题分类
func ContentOnly(s ContentSearcher) Searcher {
	return contentOnly{s: s}
}

// QueryScore 单条查询的得分
type QueryScore struct {
	Query     string           `json:"query"`
	QueryType search.QueryType `json:"query_type"`
	Precision float64          `json:"precision_at_k"`
	AP        float64          `json:"average_precision"`
	Returned  int              `json:"returned"`
}

// Report 评估报告
type Report struct {
	K             int          `json:"k"`
	Queries       []QueryScore `json:"queries"`
	MeanPrecision float64      `json:"mean_precision_at_k"`
	MAP           float64      `json:"map"`
}

// LoadQueries 读取 [{query, relevant:[ids]}] 格式的查询集
func LoadQueries(path string) ([]Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取查询集失败: %w", err)
	}
	var queries []Query
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("解析查询集失败: %w", err)
	}
	return queries, nil
}

// PrecisionAtK 前 k 个结果中相关的比例，分母恒为 k
func PrecisionAtK(results []string, relevant []string, k int) float64 {
	if k <= 0 {
		return 0
	}
	set := toSet(relevant)
	hits := 0
	for i, id := range results {
		if i >= k {
			break
		}
		if _, ok := set[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// AveragePrecision 每个命中位置的精度之和除以相关总数，没有相关项时为 0
func AveragePrecision(results []string, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	set := toSet(relevant)
	hits := 0
	sum := 0.0
	for i, id := range results {
		if _, ok := set[id]; ok {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(len(relevant))
}

// Run 并发执行所有查询，minScore 为 0 以拿到完整排序
func Run(ctx context.Context, s Searcher, queries []Query, topN, k int) (*Report, error) {
	if k <= 0 {
		k = DefaultK
	}
	scores := make([]QueryScore, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.Search(q.Query, topN, 0)
			if err != nil {
				return fmt.Errorf("查询 %q 失败: %w", q.Query, err)
			}
			ids := res.IDs()
			scores[i] = QueryScore{
				Query:     q.Query,
				QueryType: res.Type,
				Precision: PrecisionAtK(ids, q.Relevant, k),
				AP:        AveragePrecision(ids, q.Relevant),
				Returned:  len(ids),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{K: k, Queries: scores}
	if len(scores) > 0 {
		for _, qs := range scores {
			report.MeanPrecision += qs.Precision
			report.MAP += qs.AP
		}
		report.MeanPrecision /= float64(len(scores))
		report.MAP /= float64(len(scores))
	}
	return report, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
