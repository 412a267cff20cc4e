package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/user/moovie/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern 爬虫输出文件的默认匹配规则
const DefaultPattern = "movies_out_*.csv"

// 空值写法（pandas 导出的 CSV 里常见）
var nullLiterals = map[string]struct{}{
	"": {}, "nan": {}, "NaN": {}, "None": {}, "null": {}, "NULL": {}, "[]": {},
}

// rawRecord 一行原始数据：列名 -> 文本值
type rawRecord map[string]string

// LoadDir 并发读取目录下所有匹配文件，按文件名顺序合并
// 相同 id 以后出现的记录为准，位置保持首次出现的位置
func LoadDir(ctx context.Context, dir, pattern string) ([]model.Movie, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("匹配语料文件失败: %w", err)
	}
	sort.Strings(files)

	results := make([][]model.Movie, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := LoadFile(f)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(results...)
	log.Printf("[Corpus] 已读取 %d 个文件，共 %d 条记录", len(files), len(merged))
	return merged, nil
}

// Merge 按顺序合并多批记录并按 id 去重
func Merge(batches ...[]model.Movie) []model.Movie {
	var out []model.Movie
	pos := make(map[string]int)
	for _, batch := range batches {
		for _, m := range batch {
			if i, ok := pos[m.ID]; ok {
				out[i] = m
				continue
			}
			pos[m.ID] = len(out)
			out = append(out, m)
		}
	}
	return out
}

// LoadFile 根据扩展名读取 .csv 或 .jsonl 文件
func LoadFile(path string) ([]model.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开语料文件失败: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".jsonl", ".json":
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("不支持的语料文件格式: %s", path)
	}
}

// ReadCSV 读取带表头的 CSV
// 列表字段可以是 JSON 数组文本，也可以是逗号分隔文本
func ReadCSV(r io.Reader) ([]model.Movie, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []model.Movie
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 第 %d 行失败: %w", line, err)
		}
		raw := make(rawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				raw[col] = row[i]
			}
		}
		if m, ok := accept(raw.toMovie(), line); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

// ReadJSONL 每行一个 JSON 对象
func ReadJSONL(r io.Reader) ([]model.Movie, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []model.Movie
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			log.Printf("[Corpus] 跳过无法解析的第 %d 行: %v", line, err)
			continue
		}
		raw := make(rawRecord, len(obj))
		for k, v := range obj {
			raw[k] = stringify(v)
		}
		if m, ok := accept(raw.toMovie(), line); ok {
			records = append(records, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取 JSONL 失败: %w", err)
	}
	return records, nil
}

// WriteJSONL 以 JSONL 格式写出记录
func WriteJSONL(w io.Writer, records []model.Movie) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("写入记录 %s 失败: %w", records[i].ID, err)
		}
	}
	return nil
}

func accept(m model.Movie, line int) (model.Movie, bool) {
	if err := Sanitize(&m); err != nil {
		log.Printf("[Corpus] 跳过第 %d 行无效记录: %v", line, err)
		return m, false
	}
	return m, true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func (r rawRecord) toMovie() model.Movie {
	m := model.Movie{
		ID:                  r.text("id"),
		Title:               r.text("title"),
		OriginalTitle:       r.text("original_title"),
		Year:                r.integer("year"),
		Runtime:             r.integer("runtime"),
		Genre:               r.list("genre"),
		Cast:                r.list("cast"),
		Director:            r.list("director"),
		Writer:              r.list("writer"),
		ProductionCountry:   r.list("production_country"),
		ProductionCompanies: r.list("production_companies"),
		Tag:                 r.list("tag"),
		Keyword:             r.list("keyword"),
		Language:            r.list("language"),
		Plot:                r.optional("plot"),
		Rating:              r.number("rating"),
		Popularity:          r.integer("popularity"),
		MPRating:            r.optional("mprating"),
		MPRatedReason:       r.optional("mprated_reason"),
		Awards:              r.optional("awards"),
		TrailerURL:          r.optional("trailer_url"),
		PosterURL:           r.optional("poster_url"),
	}
	if m.PosterURL == nil {
		m.PosterURL = r.optional("poster")
	}
	if v := r.integer("vote_count"); v != nil {
		n := int64(*v)
		m.VoteCount = &n
	}
	m.Normalize()
	return m
}

func (r rawRecord) text(key string) string {
	v := strings.TrimSpace(r[key])
	if _, null := nullLiterals[v]; null {
		return ""
	}
	return v
}

func (r rawRecord) optional(key string) *string {
	v := r.text(key)
	if v == "" {
		return nil
	}
	return &v
}

// integer 解析整数，兼容 pandas 写出的 "2021.0"
func (r rawRecord) integer(key string) *int {
	f := r.number(key)
	if f == nil || math.IsInf(*f, 0) {
		return nil
	}
	n := int(*f)
	return &n
}

func (r rawRecord) number(key string) *float64 {
	v := strings.ReplaceAll(r.text(key), ",", "")
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func (r rawRecord) list(key string) []string {
	v := r.text(key)
	if v == "" {
		return []string{}
	}
	if strings.HasPrefix(v, "[") {
		var items []string
		if err := json.Unmarshal([]byte(v), &items); err == nil {
			return items
		}
	}
	return strings.Split(v, ",")
}
