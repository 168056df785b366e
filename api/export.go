package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	export *service.ExportService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// exportRange 解析 start_time / end_time，结束日期含当天
func (h *ExportHandler) exportRange(c *gin.Context) (string, string, []service.ExportRow, bool) {
	startStr := c.Query("start_time")
	endStr := c.Query("end_time")
	if startStr == "" || endStr == "" {
		BadRequest(c, "Podaj datę początkową i końcową.")
		return "", "", nil, false
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		BadRequest(c, "Nieprawidłowa data początkowa, oczekiwano: 2006-01-02")
		return "", "", nil, false
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		BadRequest(c, "Nieprawidłowa data końcowa, oczekiwano: 2006-01-02")
		return "", "", nil, false
	}

	rows, err := h.export.Rows(c.Request.Context(), middleware.GetCurrentUserID(c), start, end.AddDate(0, 0, 1))
	if err != nil {
		RespondError(c, err)
		return "", "", nil, false
	}
	return startStr, endStr, rows, true
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出 CSV
// @Description 根据时间范围导出收支记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	start, end, rows, ok := h.exportRange(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	if err := service.WriteCSV(buf, rows); err != nil {
		InternalError(c, "Nie udało się wygenerować pliku CSV.")
		return
	}

	filename := fmt.Sprintf("transakcje_%s_%s.csv", start, end)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出 Excel
// @Description 根据时间范围导出收支记录为 xlsx 文件，附分币种合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	start, end, rows, ok := h.exportRange(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	if err := service.WriteXLSX(buf, rows); err != nil {
		InternalError(c, "Nie udało się wygenerować pliku Excel.")
		return
	}

	filename := fmt.Sprintf("transakcje_%s_%s.xlsx", start, end)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
