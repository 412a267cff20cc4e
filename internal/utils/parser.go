package utils

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	reSiteSuffix = regexp.MustCompile(`\s+[-|]\s+IMDb\s*$`)
	reYearParens = regexp.MustCompile(`\s*\((?:TV (?:Movie|Series|Mini Series)\s*)?\d{4}(?:[–-]\d{0,4})?\)\s*$`)
	reDuration   = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	reTitleID    = regexp.MustCompile(`^tt\d{7,}$`)
)

// CleanTitle 清理页面标题中的杂质信息
// "Dune: Part Two (2024) - IMDb" -> "Dune: Part Two"
func CleanTitle(title string) string {
	if title == "" {
		return ""
	}
	title = html.UnescapeString(title)

	// 1. 移除站点后缀
	title = reSiteSuffix.ReplaceAllString(title, "")

	// 2. 移除末尾的年份括号
	title = reYearParens.ReplaceAllString(title, "")

	// 3. 处理多余空格
	return strings.Join(strings.Fields(title), " ")
}

// ParseISODuration 解析 ISO-8601 时长为分钟数，例如 PT2H35M -> 155
// 秒数不少于 30 时进一位；无法解析时返回 0, false
func ParseISODuration(s string) (int, bool) {
	m := reDuration.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if seconds >= 30 {
		minutes++
	}
	return hours*60 + minutes, true
}

// IsTitleID 是否为合法的标题 id（tt 加至少 7 位数字）
func IsTitleID(id string) bool {
	return reTitleID.MatchString(id)
}
