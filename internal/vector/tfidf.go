// Package vector 实现基于语料自身词表的 TF-IDF 向量化与余弦相似度
//
// 权重计算：
//   - TF 取词频原始计数
//   - IDF = ln((1+n)/(1+df)) + 1（平滑）
//   - 每行做 L2 归一化，余弦相似度即单位向量点积
//
// 查询中未出现在词表里的词不产生任何贡献。
package vector

import (
	"math"
	"regexp"
	"sort"
)

// tokenPattern 两个及以上单词字符构成一个词元
var tokenPattern = regexp.MustCompile(`\w\w+`)

// Entry 稀疏向量中的一个分量
type Entry struct {
	Term   int
	Weight float64
}

// posting 倒排表项：某个词在某行中的权重
type posting struct {
	row    int
	weight float64
}

// Index 拟合后的向量索引
// rows[i] 与语料第 i 条记录严格对应
type Index struct {
	vocabulary map[string]int
	idf        []float64
	rows       [][]Entry
	postings   [][]posting
}

// Fit 在给定文档集合上拟合 TF-IDF
// 文档全为空时得到空词表，此后任何查询的相似度都为 0
func Fit(documents []string) *Index {
	idx := &Index{
		vocabulary: make(map[string]int),
		rows:       make([][]Entry, len(documents)),
	}

	// 1. 建词表并统计每行词频
	counts := make([]map[int]int, len(documents))
	var df []int
	for i, doc := range documents {
		tc := make(map[int]int)
		for _, tok := range Tokenize(doc) {
			term, ok := idx.vocabulary[tok]
			if !ok {
				term = len(idx.vocabulary)
				idx.vocabulary[tok] = term
				df = append(df, 0)
			}
			if tc[term] == 0 {
				df[term]++
			}
			tc[term]++
		}
		counts[i] = tc
	}

	// 2. 平滑 IDF
	n := float64(len(documents))
	idx.idf = make([]float64, len(df))
	for term, d := range df {
		idx.idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	// 3. 每行 TF-IDF 并 L2 归一化，同时构建倒排表
	idx.postings = make([][]posting, len(df))
	for i, tc := range counts {
		row := idx.weigh(tc)
		idx.rows[i] = row
		for _, e := range row {
			idx.postings[e.Term] = append(idx.postings[e.Term], posting{row: i, weight: e.Weight})
		}
	}

	return idx
}

// Similarity 计算查询文档与每一行的余弦相似度，按行序返回
func (idx *Index) Similarity(queryDocument string) []float64 {
	scores := make([]float64, len(idx.rows))
	query := idx.Transform(queryDocument)
	for _, q := range query {
		for _, p := range idx.postings[q.Term] {
			scores[p.row] += q.Weight * p.weight
		}
	}
	return scores
}

// Transform 将文本映射为归一化稀疏向量，未登录词被忽略
func (idx *Index) Transform(document string) []Entry {
	tc := make(map[int]int)
	for _, tok := range Tokenize(document) {
		if term, ok := idx.vocabulary[tok]; ok {
			tc[term]++
		}
	}
	return idx.weigh(tc)
}

// Len 行数（语料记录数）
func (idx *Index) Len() int {
	return len(idx.rows)
}

// VocabularySize 词表大小
func (idx *Index) VocabularySize() int {
	return len(idx.vocabulary)
}

// Row 第 i 行的稀疏向量，越界返回 nil
func (idx *Index) Row(i int) []Entry {
	if i < 0 || i >= len(idx.rows) {
		return nil
	}
	return idx.rows[i]
}

// Terms 按维度排列的词表
func (idx *Index) Terms() []string {
	terms := make([]string, len(idx.vocabulary))
	for tok, t := range idx.vocabulary {
		terms[t] = tok
	}
	return terms
}

// IDF 第 term 维的逆文档频率，越界返回 0
func (idx *Index) IDF(term int) float64 {
	if term < 0 || term >= len(idx.idf) {
		return 0
	}
	return idx.idf[term]
}

// Term 查询词在词表中的维度
func (idx *Index) Term(token string) (int, bool) {
	t, ok := idx.vocabulary[token]
	return t, ok
}

func (idx *Index) weigh(tc map[int]int) []Entry {
	if len(tc) == 0 {
		return nil
	}
	row := make([]Entry, 0, len(tc))
	var norm float64
	for term, c := range tc {
		w := float64(c) * idx.idf[term]
		norm += w * w
		row = append(row, Entry{Term: term, Weight: w})
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range row {
			row[i].Weight /= norm
		}
	}
	// 按维度排序，保证结果与 map 遍历顺序无关
	sort.Slice(row, func(i, j int) bool { return row[i].Term < row[j].Term })
	return row
}

// Tokenize 向量化使用的分词规则
func Tokenize(doc string) []string {
	return tokenPattern.FindAllString(doc, -1)
}
