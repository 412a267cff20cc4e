package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/user/moovie/internal/corpus"
)

// yearPattern 独立的四位数年份，1900-2199
var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2}|21\d{2})\b`)

// DefaultPersonSampleSize 人物判断只扫描语料前 N 条
// 语料超过该规模后判断会漏掉靠后的人名，可通过配置调整，<=0 表示扫描全部
const DefaultPersonSampleSize = 5000

// rule 分类规则：按顺序匹配，先命中者生效
type rule struct {
	qtype QueryType
	match func(q string, c *corpus.Corpus, sample int) bool
}

// classificationRules 优先级即顺序，不要调整
var classificationRules = []rule{
	{QueryYear, func(q string, _ *corpus.Corpus, _ int) bool { return yearPattern.MatchString(q) }},
	{QueryGenre, matchGenre},
	{QueryPerson, matchPerson},
	{QueryTitle, matchTitle},
}

// Classify 判断查询类型，均不命中时为 content
func Classify(query string, c *corpus.Corpus, personSample int) QueryType {
	for _, r := range classificationRules {
		if r.match(query, c, personSample) {
			return r.qtype
		}
	}
	return QueryContent
}

// ClassificationOrder 分类规则的优先级顺序
func ClassificationOrder() []QueryType {
	order := make([]QueryType, 0, len(classificationRules)+1)
	for _, r := range classificationRules {
		order = append(order, r.qtype)
	}
	return append(order, QueryContent)
}

// ExtractYear 取查询中的第一个年份，没有则返回 0
func ExtractYear(query string) int {
	m := yearPattern.FindString(query)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

func lowerQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func matchGenre(q string, c *corpus.Corpus, _ int) bool {
	lq := lowerQuery(q)
	return lq != "" && c.HasGenre(lq)
}

func matchPerson(q string, c *corpus.Corpus, sample int) bool {
	lq := lowerQuery(q)
	if lq == "" {
		return false
	}
	n := c.Len()
	if sample > 0 && sample < n {
		n = sample
	}
	for i := 0; i < n; i++ {
		e := c.Entry(i)
		if anyContains(e.LowerCast, lq) || anyContains(e.LowerDirector, lq) {
			return true
		}
	}
	return false
}

func matchTitle(q string, c *corpus.Corpus, _ int) bool {
	lq := lowerQuery(q)
	return lq != "" && c.HasTitle(lq)
}

func anyContains(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}
