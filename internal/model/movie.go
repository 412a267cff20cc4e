package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Movie 电影记录（一行语料）
// 标量字段缺失时为 nil，列表字段缺失时为空切片
type Movie struct {
	ID                  string         `json:"id" gorm:"primaryKey" validate:"required"`
	Title               string         `json:"title" validate:"required"`
	OriginalTitle       string         `json:"original_title"`
	Year                *int           `json:"year" gorm:"index" validate:"omitempty,gte=1800,lte=2199"`
	Runtime             *int           `json:"runtime" validate:"omitempty,gte=0"`
	Genre               pq.StringArray `json:"genre" gorm:"type:text[]"`
	Cast                pq.StringArray `json:"cast" gorm:"type:text[]"`
	Director            pq.StringArray `json:"director" gorm:"type:text[]"`
	Writer              pq.StringArray `json:"writer" gorm:"type:text[]"`
	ProductionCountry   pq.StringArray `json:"production_country" gorm:"type:text[]"`
	ProductionCompanies pq.StringArray `json:"production_companies" gorm:"type:text[]"`
	Tag                 pq.StringArray `json:"tag" gorm:"type:text[]"`
	Keyword             pq.StringArray `json:"keyword" gorm:"type:text[]"`
	Language            pq.StringArray `json:"language" gorm:"type:text[]"`
	Plot                *string        `json:"plot"`
	Rating              *float64       `json:"rating" gorm:"index" validate:"omitempty,gte=0,lte=10"`
	VoteCount           *int64         `json:"vote_count" validate:"omitempty,gte=0"`
	Popularity          *int           `json:"popularity"`
	MPRating            *string        `json:"mprating"`
	MPRatedReason       *string        `json:"mprated_reason"`
	Awards              *string        `json:"awards"`
	TrailerURL          *string        `json:"trailer_url"`
	PosterURL           *string        `json:"poster_url"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"index"`
}

// Normalize 补齐列表字段并去重，保证不出现 nil 列表
func (m *Movie) Normalize() {
	m.ID = strings.TrimSpace(m.ID)
	m.Genre = UniqKeepOrder(m.Genre)
	m.Cast = UniqKeepOrder(m.Cast)
	m.Director = UniqKeepOrder(m.Director)
	m.Writer = UniqKeepOrder(m.Writer)
	m.ProductionCountry = UniqKeepOrder(m.ProductionCountry)
	m.ProductionCompanies = UniqKeepOrder(m.ProductionCompanies)
	m.Tag = UniqKeepOrder(m.Tag)
	m.Keyword = UniqKeepOrder(m.Keyword)
	m.Language = UniqKeepOrder(m.Language)
}

// GenreText 类型拼接文本
func (m *Movie) GenreText() string {
	return strings.Join(m.Genre, ", ")
}

// PlotText 剧情简介，缺失时返回空串
func (m *Movie) PlotText() string {
	if m.Plot == nil {
		return ""
	}
	return *m.Plot
}

// UniqKeepOrder 去除空白项和重复项，保持原有顺序
func UniqKeepOrder(items []string) pq.StringArray {
	res := make(pq.StringArray, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		res = append(res, s)
	}
	return res
}
