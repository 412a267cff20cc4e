package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/utils"
)

const maxPageSize = 200

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	stats := h.Engine.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"ready":   stats.Ready,
		"records": stats.Records,
	})
}

// Search 搜索接口
// GET /api/search?query=&page=&per_page=&min_score=
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}

	perPage := queryInt(c, "per_page", h.Config.SearchPageSize)
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	page, err := h.Movies.Search(
		query,
		queryInt(c, "page", 1),
		perPage,
		queryFloat(c, "min_score", h.Config.MinScore),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, page)
}

// MovieDetail 电影详情及相似推荐
func (h *Handler) MovieDetail(c *gin.Context) {
	movie, similar, err := h.Movies.Detail(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if movie == nil {
		utils.NotFound(c, "电影未找到")
		return
	}
	utils.Success(c, gin.H{
		"movie":          movie,
		"trailer_url":    movie.TrailerURL,
		"similar_movies": similar,
	})
}

// MoviesByGenre 按类型浏览
func (h *Handler) MoviesByGenre(c *gin.Context) {
	genre := strings.TrimSpace(c.Param("genre"))
	if genre == "" {
		utils.BadRequest(c, "类型不能为空")
		return
	}
	list, err := h.Movies.ByGenre(genre, queryInt(c, "limit", 20))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, list)
}

// TopRated 高分榜
func (h *Handler) TopRated(c *gin.Context) {
	movies, err := h.Movies.TopRated(queryInt(c, "limit", 20))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, movies)
}

// Genres 类型列表
func (h *Handler) Genres(c *gin.Context) {
	genres, err := h.Movies.Genres()
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, genres)
}
