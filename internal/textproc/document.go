package textproc

import "strings"

// Weights 加权文档中各字段的重复次数
type Weights struct {
	Title int
	Genre int
	Plot  int
}

// DefaultWeights 默认权重：标题 3、类型 2、简介 1
func DefaultWeights() Weights {
	return Weights{Title: 3, Genre: 2, Plot: 1}
}

// Fields 单条记录清洗后的三个字段
type Fields struct {
	Title string
	Genre string
	Plot  string
}

// NormalizeFields 清洗标题、类型、简介
func NormalizeFields(title, genre, plot string) Fields {
	return Fields{
		Title: Normalize(title),
		Genre: Normalize(genre),
		Plot:  Normalize(plot),
	}
}

// BuildDocument 按权重拼接加权文档
// 标题词在向量空间中的权重是简介词的三倍，用来让标题命中排在简介附带命中之前
func BuildDocument(f Fields, w Weights) string {
	var b strings.Builder
	repeat(&b, f.Title, w.Title)
	repeat(&b, f.Genre, w.Genre)
	repeat(&b, f.Plot, w.Plot)
	return b.String()
}

// repeat 写入 n 次 (s + " ")
func repeat(b *strings.Builder, s string, n int) {
	for i := 0; i < n; i++ {
		b.WriteString(s)
		b.WriteByte(' ')
	}
}
