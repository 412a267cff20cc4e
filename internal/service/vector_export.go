package service

import (
	"fmt"
	"log"
	"time"

	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/vector"
)

// VectorStore 向量快照的持久化
type VectorStore interface {
	ReplaceSnapshot(ids []string, idx *vector.Index) error
}

// ExportVectors 把当前发布快照的词表和向量写入 store
func ExportVectors(engine *search.Engine, store VectorStore) error {
	s := engine.Current()
	if s == nil {
		return search.ErrCorpusUnavailable
	}

	c := s.Corpus()
	ids := make([]string, c.Len())
	for i := range ids {
		ids[i] = c.Entry(i).Movie.ID
	}

	start := time.Now()
	if err := store.ReplaceSnapshot(ids, s.Index()); err != nil {
		return fmt.Errorf("导出向量失败: %w", err)
	}
	log.Printf("[VectorExport] 导出 %d 条向量, 词表 %d, 耗时 %v", len(ids), s.Index().VocabularySize(), time.Since(start))
	return nil
}
