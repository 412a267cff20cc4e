package repository

import (
	"errors"
	"time"

	"github.com/user/moovie/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Upsert 添加收藏，已存在时更新状态
func (r *FavoriteRepository) Upsert(userID int, movieID, status string) error {
	now := time.Now()
	fav := &model.Favorite{
		UserID:    userID,
		MovieID:   movieID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(fav).Error
}

// Remove 取消收藏
func (r *FavoriteRepository) Remove(userID int, movieID string) error {
	return r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Favorite{}).Error
}

// ListByUser 用户收藏列表，status 为空时返回全部
func (r *FavoriteRepository) ListByUser(userID int, status string) ([]*model.Favorite, error) {
	var favorites []*model.Favorite
	q := r.db.Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("updated_at DESC").Find(&favorites).Error
	return favorites, err
}

// GetStatus 收藏状态，未收藏时返回空串
func (r *FavoriteRepository) GetStatus(userID int, movieID string) (string, error) {
	var fav model.Favorite
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fav.Status, nil
}
