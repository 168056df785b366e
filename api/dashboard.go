package api

import (
	"time"

	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 首页汇总
type DashboardHandler struct {
	dashboard *service.DashboardService
	now       func() time.Time
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, now: time.Now}
}

// Get 首页汇总
// @Summary 获取首页汇总
// @Description 指定月份的收支合计、账户余额合计（总计与分币种）以及最近 10 条记录
// @Tags 首页
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 YYYY-MM，默认当前月"
// @Success 200 {object} Response{data=service.Dashboard} "获取成功"
// @Failure 400 {object} Response "月份格式错误"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.dashboard.Build(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("month"), h.now())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, d)
}
