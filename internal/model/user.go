package model

import (
	"time"
)

// 收藏状态
const (
	FavoriteWatchLater = "watch_later"
	FavoriteWatching   = "watching"
	FavoriteCompleted  = "completed"
	FavoriteDropped    = "dropped"
)

// User 用户模型
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email" gorm:"unique"`
	Username     string    `json:"username" db:"username" gorm:"unique"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
}

// Favorite 收藏（片单）
type Favorite struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_favorite_movie"`
	MovieID   string    `json:"movie_id" db:"movie_id" gorm:"uniqueIndex:idx_user_favorite_movie"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"index"`
}

// IsValidFavoriteStatus 校验收藏状态
func IsValidFavoriteStatus(status string) bool {
	switch status {
	case FavoriteWatchLater, FavoriteWatching, FavoriteCompleted, FavoriteDropped:
		return true
	}
	return false
}
