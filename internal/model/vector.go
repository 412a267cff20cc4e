package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// IndexTerm 向量词表中的一维
type IndexTerm struct {
	Dim  int32   `json:"dim" gorm:"primaryKey;autoIncrement:false"`
	Term string  `json:"term" gorm:"not null"`
	IDF  float64 `json:"idf" gorm:"column:idf"`
}

// MovieVector 电影在当前词表下的 TF-IDF 向量
// 词表大小随语料变化，列类型使用不限维度的 sparsevec
type MovieVector struct {
	MovieID   string                `json:"movie_id" gorm:"primaryKey"`
	Embedding pgvector.SparseVector `json:"-" gorm:"type:sparsevec"`
	UpdatedAt time.Time             `json:"updated_at"`
}
