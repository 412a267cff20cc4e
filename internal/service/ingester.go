package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/utils"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrInvalidTitleID 标题 id 格式不正确
var ErrInvalidTitleID = errors.New("invalid title id")

// ErrNoStructuredData 页面中没有可用的 JSON-LD 数据
var ErrNoStructuredData = errors.New("no structured data on title page")

var reYear = regexp.MustCompile(`(19|20|21)\d{2}`)

// MovieStore 抓取结果的落库接口
type MovieStore interface {
	Upsert(movie *model.Movie) error
}

// Fetcher 页面下载接口
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Ingester 标题详情页抓取服务
type Ingester struct {
	baseURL string
	fetcher Fetcher
	store   MovieStore
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	sf      singleflight.Group
}

// NewIngester 创建抓取服务，store 为 nil 时只解析不落库
func NewIngester(baseURL string, rps float64, fetcher Fetcher, store MovieStore) *Ingester {
	if fetcher == nil {
		fetcher = utils.NewHTTPClient()
	}
	if rps <= 0 {
		rps = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TitleIngester",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[Ingester] 熔断器 %s: %s -> %s", name, from, to)
		},
		// 页面本身不合规（没有结构化数据、缺少标题）不算上游故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoStructuredData) || errors.Is(err, ErrInvalidTitleID)
		},
	})

	return &Ingester{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		store:   store,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// FetchTitle 抓取并解析一个标题详情页，校验后写入存储
// 同一 id 的并发请求只会抓取一次
func (i *Ingester) FetchTitle(ctx context.Context, id string) (*model.Movie, error) {
	id = strings.TrimSpace(id)
	if !utils.IsTitleID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTitleID, id)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// 同一 id 的抓取由多个调用方共享，不随首个调用方取消
	ch := i.sf.DoChan(id, func() (interface{}, error) {
		return i.fetchTitle(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*model.Movie), nil
	}
}

func (i *Ingester) fetchTitle(ctx context.Context, id string) (*model.Movie, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/title/%s/", i.baseURL, id)
	v, err := i.breaker.Execute(func() (interface{}, error) {
		body, err := i.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return ParseTitlePage(body, id)
	})
	if err != nil {
		return nil, fmt.Errorf("抓取 %s 失败: %w", id, err)
	}
	movie := v.(*model.Movie)

	if i.store != nil {
		if err := i.store.Upsert(movie); err != nil {
			return nil, fmt.Errorf("保存电影失败: %w", err)
		}
	}

	log.Printf("[Ingester] 成功抓取: %s (%s)", movie.Title, id)
	return movie, nil
}

// ParseTitlePage 从详情页的 application/ld+json 中提取电影信息
func ParseTitlePage(page []byte, id string) (*model.Movie, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	var movie *model.Movie
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return true
		}
		for _, item := range asList(data) {
			obj, ok := item.(map[string]any)
			if !ok || !isTitleType(obj["@type"]) {
				continue
			}
			movie = movieFromLD(obj)
			return false
		}
		return true
	})
	if movie == nil {
		return nil, ErrNoStructuredData
	}

	// JSON-LD 没有标题时用 og:title 兜底
	if movie.Title == "" {
		if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
			movie.Title = utils.CleanTitle(og)
		}
	}

	movie.ID = id
	movie.Normalize()
	if err := corpus.Sanitize(movie); err != nil {
		return nil, err
	}
	return movie, nil
}

func isTitleType(v any) bool {
	switch str(v) {
	case "Movie", "TVSeries", "TVMiniSeries":
		return true
	}
	return false
}

func movieFromLD(d map[string]any) *model.Movie {
	m := &model.Movie{}

	// 国际标题作为 title，原语言标题作为 original_title
	name, alternate := utils.CleanTitle(str(d["name"])), utils.CleanTitle(str(d["alternateName"]))
	switch {
	case alternate == "" || alternate == name:
		m.Title, m.OriginalTitle = name, name
	case isNonLatin(name) && !isNonLatin(alternate):
		m.Title, m.OriginalTitle = alternate, name
	default:
		m.Title, m.OriginalTitle = name, alternate
	}

	if desc := strings.Join(strings.Fields(str(d["description"])), " "); desc != "" {
		m.Plot = &desc
	}
	if img := str(d["image"]); img != "" {
		m.PosterURL = &img
	}

	m.Genre = stringList(d["genre"])
	if minutes, ok := utils.ParseISODuration(str(d["duration"])); ok {
		m.Runtime = &minutes
	}
	if y := reYear.FindString(str(d["datePublished"])); y != "" {
		year, _ := strconv.Atoi(y)
		m.Year = &year
	}

	if ar, ok := d["aggregateRating"].(map[string]any); ok {
		if f, err := strconv.ParseFloat(str(ar["ratingValue"]), 64); err == nil {
			m.Rating = &f
		}
		if n, ok := digits(str(ar["ratingCount"])); ok {
			m.VoteCount = &n
		}
	}

	m.Director = names(d["director"], "")
	m.Writer = append(names(d["author"], "Person"), names(d["creator"], "Person")...)
	m.Cast = names(d["actor"], "")
	m.ProductionCompanies = names(d["productionCompany"], "")

	countries := d["countryOfOrigin"]
	if countries == nil {
		countries = d["countryOfOriginList"]
	}
	m.ProductionCountry = append(names(countries, ""), stringList(countries)...)

	lang := d["inLanguage"]
	if lang == nil {
		lang = d["language"]
	}
	m.Language = stringList(lang)
	m.Keyword = splitKeywords(str(d["keywords"]))

	if r := str(d["contentRating"]); r != "" {
		m.MPRating = &r
	}
	if tr, ok := d["trailer"].(map[string]any); ok {
		u := str(tr["embedUrl"])
		if u == "" {
			u = str(tr["url"])
		}
		if u != "" {
			m.TrailerURL = &u
		}
	}
	return m
}

// asList 单个对象视为长度为 1 的列表
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// str 字符串或数字转文本，其余类型返回空串
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

// names 取 {"@type": ..., "name": ...} 列表中的 name，wantType 非空时只保留该类型
func names(v any, wantType string) []string {
	var res []string
	for _, item := range asList(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if wantType != "" && str(obj["@type"]) != wantType {
			continue
		}
		if n := str(obj["name"]); n != "" {
			res = append(res, n)
		}
	}
	return res
}

// stringList 取列表中的字符串项
func stringList(v any) []string {
	var res []string
	for _, item := range asList(v) {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			res = append(res, strings.TrimSpace(s))
		}
	}
	return res
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// digits 去掉非数字字符后解析，"1,234,567" -> 1234567
func digits(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	return n, err == nil
}

// isNonLatin 超过 30% 的字符是非 ASCII 时视为原语言标题
func isNonLatin(s string) bool {
	if s == "" {
		return false
	}
	n := 0
	for _, r := range s {
		if r > 127 {
			n++
		}
	}
	return float64(n) > float64(utf8.RuneCountInString(s))*0.3
}
