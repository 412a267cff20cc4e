package repository

import (
	"errors"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize 单条 INSERT 的记录数，避免超出 PostgreSQL 参数上限
const upsertBatchSize = 500

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// UpsertBatch 批量创建或更新电影，以 id 为冲突键
func (r *MovieRepository) UpsertBatch(movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	now := time.Now()
	for i := range movies {
		movies[i].UpdatedAt = now
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(movies, upsertBatchSize).Error
}

// Upsert 创建或更新单部电影
func (r *MovieRepository) Upsert(movie *model.Movie) error {
	movie.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(movie).Error
}

// FindByID 根据 ID 查找电影
func (r *MovieRepository) FindByID(id string) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Where("id = ?", id).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// ListAll 全部电影，按 id 排序以保证语料顺序稳定
func (r *MovieRepository) ListAll() ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.Order("id ASC").Find(&movies).Error
	return movies, err
}

// Count 电影总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}
