package repository

import (
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/vector"
	"gorm.io/gorm"
)

// VectorRepository 保存最近一次发布的 TF-IDF 快照
// 向量存为 sparsevec，数据库侧可以直接用 <=> 按余弦距离查询
type VectorRepository struct {
	db *gorm.DB
}

// EnableVectors 启用 vector 扩展并迁移向量表
// 数据库没有安装 pgvector 时返回错误，调用方应关闭导出
func EnableVectors(db *gorm.DB) (*VectorRepository, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("启用 vector 扩展失败: %w", err)
	}
	if err := db.AutoMigrate(&model.IndexTerm{}, &model.MovieVector{}); err != nil {
		return nil, fmt.Errorf("向量表迁移失败: %w", err)
	}
	return &VectorRepository{db: db}, nil
}

// SparseFromEntries 转为 pgvector 稀疏向量，dim 为词表大小
func SparseFromEntries(row []vector.Entry, dim int) pgvector.SparseVector {
	elements := make(map[int32]float32, len(row))
	for _, e := range row {
		elements[int32(e.Term)] = float32(e.Weight)
	}
	return pgvector.NewSparseVectorFromMap(elements, int32(dim))
}

// snapshotRows 词表与非空向量行，ids[i] 对应索引第 i 行
func snapshotRows(ids []string, idx *vector.Index) ([]model.IndexTerm, []model.MovieVector) {
	terms := idx.Terms()
	vocab := make([]model.IndexTerm, len(terms))
	for i, t := range terms {
		vocab[i] = model.IndexTerm{Dim: int32(i), Term: t, IDF: idx.IDF(i)}
	}

	now := time.Now()
	vectors := make([]model.MovieVector, 0, len(ids))
	for i, id := range ids {
		row := idx.Row(i)
		// 全零向量在 sparsevec 中没有意义，跳过
		if len(row) == 0 {
			continue
		}
		vectors = append(vectors, model.MovieVector{
			MovieID:   id,
			Embedding: SparseFromEntries(row, len(terms)),
			UpdatedAt: now,
		})
	}
	return vocab, vectors
}

// ReplaceSnapshot 在一个事务里用新快照整体替换词表和向量
func (r *VectorRepository) ReplaceSnapshot(ids []string, idx *vector.Index) error {
	if len(ids) != idx.Len() {
		return fmt.Errorf("id 数量 %d 与索引行数 %d 不一致", len(ids), idx.Len())
	}
	vocab, vectors := snapshotRows(ids, idx)

	return r.db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&model.MovieVector{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&model.IndexTerm{}).Error; err != nil {
			return err
		}
		if len(vocab) > 0 {
			if err := tx.CreateInBatches(vocab, upsertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(vectors) > 0 {
			if err := tx.CreateInBatches(vectors, upsertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountVectors 已保存的向量条数
func (r *VectorRepository) CountVectors() (int64, error) {
	var count int64
	err := r.db.Model(&model.MovieVector{}).Count(&count).Error
	return count, err
}
