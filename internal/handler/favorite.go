package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/utils"
)

// FavoriteItem 片单条目，附带语料中的电影信息（可能已不在语料中）
type FavoriteItem struct {
	*model.Favorite
	Movie *model.Movie `json:"movie"`
}

type favoriteRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListFavorites 我的片单，可按状态过滤
func (h *Handler) ListFavorites(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	status := c.Query("status")
	if status != "" && !model.IsValidFavoriteStatus(status) {
		utils.BadRequest(c, "无效的状态")
		return
	}

	favorites, err := h.Favorites.ListByUser(middleware.GetUserID(c), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]FavoriteItem, 0, len(favorites))
	for _, f := range favorites {
		items = append(items, FavoriteItem{Favorite: f, Movie: h.Engine.Lookup(f.MovieID)})
	}
	utils.Success(c, items)
}

// AddFavorite 加入片单或更新状态
func (h *Handler) AddFavorite(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || !model.IsValidFavoriteStatus(req.Status) {
		utils.BadRequest(c, "状态必须是 watch_later、watching、completed 或 dropped")
		return
	}

	movieID := c.Param("id")
	if !h.Engine.Ready() {
		utils.ServiceUnavailable(c, "语料尚未加载，请稍后再试")
		return
	}
	if h.Engine.Lookup(movieID) == nil {
		utils.NotFound(c, "电影未找到")
		return
	}

	if err := h.Favorites.Upsert(middleware.GetUserID(c), movieID, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, gin.H{"movie_id": movieID, "status": req.Status})
}

// RemoveFavorite 移出片单
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	if err := h.Favorites.Remove(middleware.GetUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// FavoriteStatus 查询某部电影在片单中的状态，未收藏时为空串
func (h *Handler) FavoriteStatus(c *gin.Context) {
	if !h.accountsEnabled(c) {
		return
	}
	movieID := c.Param("id")
	status, err := h.Favorites.GetStatus(middleware.GetUserID(c), movieID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, gin.H{"movie_id": movieID, "status": status})
}
