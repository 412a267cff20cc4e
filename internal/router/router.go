package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/moovie/internal/handler"
	"github.com/user/moovie/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler, gatherer prometheus.Gatherer) {
	secret := h.Config.AppSecret

	// 健康检查与监控
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// ==================== 公开 API ====================
	api := r.Group("/api")
	api.Use(middleware.RateLimit(h.Config.RateLimitRPS, h.Config.RateLimitBurst))
	api.Use(middleware.OptionalAuth(secret))
	{
		api.GET("/health", h.Health)
		api.GET("/search", h.Search)
		api.GET("/movie/:id", h.MovieDetail)
		api.GET("/movies/genre/:genre", h.MoviesByGenre)
		api.GET("/movies/top-rated", h.TopRated)
		api.GET("/genres", h.Genres)

		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/me", h.Me)
	}

	// ==================== 需要登录 ====================
	user := api.Group("")
	user.Use(middleware.RequireAuth(secret))
	{
		user.GET("/favorites", h.ListFavorites)
		user.POST("/favorites/:id", h.AddFavorite)
		user.DELETE("/favorites/:id", h.RemoveFavorite)
		user.GET("/favorites/:id/status", h.FavoriteStatus)
	}

	// ==================== 管理接口 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(secret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/reload", h.AdminReload)
		admin.POST("/ingest/:id", h.AdminIngest)
		admin.GET("/stats", h.AdminStats)
	}
}
