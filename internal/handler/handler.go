package handler

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/utils"
)

// UserStore 用户存储
type UserStore interface {
	Create(email, username, password string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByID(id int) (*model.User, error)
	CheckPassword(user *model.User, password string) bool
}

// FavoriteStore 片单存储
type FavoriteStore interface {
	Upsert(userID int, movieID, status string) error
	Remove(userID int, movieID string) error
	ListByUser(userID int, status string) ([]*model.Favorite, error)
	GetStatus(userID int, movieID string) (string, error)
}

// Refresher 语料重建
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// TitleIngester 标题页抓取
type TitleIngester interface {
	FetchTitle(ctx context.Context, id string) (*model.Movie, error)
}

// Handler HTTP 处理器
// 未启用数据库时 Users、Favorites、Ingester 为 nil，相关接口返回 503
type Handler struct {
	Config    *config.Config
	Engine    *search.Engine
	Movies    *service.MovieService
	Refresher Refresher
	Ingester  TitleIngester
	Users     UserStore
	Favorites FavoriteStore
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, engine *search.Engine, movies *service.MovieService) *Handler {
	return &Handler{
		Config: cfg,
		Engine: engine,
		Movies: movies,
	}
}

// fail 统一错误输出，语料未就绪返回 503
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, search.ErrCorpusUnavailable) {
		utils.ServiceUnavailable(c, "语料尚未加载，请稍后再试")
		return
	}
	log.Printf("[API] %s %s 失败: %v", c.Request.Method, c.FullPath(), err)
	utils.InternalServerError(c, "")
}

func (h *Handler) accountsEnabled(c *gin.Context) bool {
	if h.Users == nil || h.Favorites == nil {
		utils.ServiceUnavailable(c, "账号功能未启用")
		return false
	}
	return true
}

// queryInt 读取整数参数，非法或缺失时返回默认值
func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

func queryFloat(c *gin.Context, key string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.Query(key), 64); err == nil {
		return v
	}
	return def
}
