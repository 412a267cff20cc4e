// Package textproc 文本清洗：大小写、标点、停用词、词形还原，以及加权文档拼接
package textproc

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxLemmaRounds 词形还原迭代上限，正常情况下一到两轮即收敛
const maxLemmaRounds = 5

// irregularLemmas 不规则词形，词干算法处理不了的部分
var irregularLemmas = map[string]string{
	"ran": "run", "went": "go", "gone": "go",
	"children": "child", "men": "man", "women": "woman",
	"mice": "mouse", "feet": "foot", "teeth": "tooth", "geese": "goose",
	"wives": "wife", "knives": "knife", "wolves": "wolf", "thieves": "thief",
	"fought": "fight", "thought": "think", "brought": "bring", "caught": "catch",
	"taught": "teach", "sought": "seek", "found": "find", "made": "make",
	"told": "tell", "knew": "know", "known": "know", "took": "take", "taken": "take",
	"gave": "give", "given": "give", "came": "come", "became": "become",
	"began": "begin", "begun": "begin", "fallen": "fall", "flew": "fly", "flown": "fly",
	"wrote": "write", "written": "write", "stole": "steal", "stolen": "steal",
	"lost": "lose", "met": "meet", "hid": "hide", "hidden": "hide",
}

// Normalize 清洗一段自由文本，返回以单个空格连接的词元
// 空输入返回空串；同一输入永远得到同一输出，且对输出再次清洗结果不变
func Normalize(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens 返回清洗后的词元序列
func Tokens(text string) []string {
	if text == "" {
		return nil
	}

	// 1. 去掉重音符号，"Amélie" -> "Amelie"
	text = foldAccents(text)

	// 2. 小写 + 只保留 ASCII 字母、数字和空白
	text = stripNonASCII(strings.ToLower(text))

	// 3. 分词、去停用词、词形还原
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if IsStopword(f) {
			continue
		}
		lemma := Lemmatize(f)
		if lemma == "" || IsStopword(lemma) {
			continue
		}
		tokens = append(tokens, lemma)
	}
	return tokens
}

// Lemmatize 将单个小写词元还原为基本形式
// 先查不规则词表，再用 Snowball 词干算法，迭代到不再变化为止
func Lemmatize(token string) string {
	for i := 0; i < maxLemmaRounds; i++ {
		next := token
		if base, ok := irregularLemmas[next]; ok {
			next = base
		}
		next = snowballeng.Stem(next, false)
		if next == token {
			break
		}
		token = next
	}
	return token
}

func foldAccents(s string) string {
	// transform.Transformer 有状态，每次调用新建
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
			b.WriteRune(r)
		}
	}
	return b.String()
}
