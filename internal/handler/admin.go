package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/utils"
)

// ==================== 管理接口 ====================

// AdminReload 从文件和数据库重建语料并替换
func (h *Handler) AdminReload(c *gin.Context) {
	if h.Refresher == nil {
		utils.ServiceUnavailable(c, "")
		return
	}
	n, err := h.Refresher.Refresh(c.Request.Context())
	if err != nil {
		log.Printf("[Admin] 重建语料失败: %v", err)
		utils.InternalServerError(c, "重建失败，继续使用旧语料")
		return
	}
	utils.SuccessWithMessage(c, "语料已重建", gin.H{"records": n})
}

// AdminIngest 抓取单个标题页并写入数据库，下次重建后进入语料
func (h *Handler) AdminIngest(c *gin.Context) {
	if h.Ingester == nil {
		utils.ServiceUnavailable(c, "抓取功能未启用")
		return
	}
	movie, err := h.Ingester.FetchTitle(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		utils.Success(c, movie)
	case errors.Is(err, service.ErrInvalidTitleID):
		utils.BadRequest(c, "无效的标题 id")
	case errors.Is(err, service.ErrNoStructuredData):
		utils.NotFound(c, "页面中没有可用的数据")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		utils.ServiceUnavailable(c, "抓取暂时熔断，请稍后再试")
	default:
		log.Printf("[Admin] 抓取 %s 失败: %v", c.Param("id"), err)
		utils.Error(c, 502, "抓取失败")
	}
}

// AdminStats 引擎状态
func (h *Handler) AdminStats(c *gin.Context) {
	utils.Success(c, h.Engine.Stats())
}
