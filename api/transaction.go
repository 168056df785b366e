package api

import (
	"strconv"
	"time"

	"fintrack/middleware"
	"fintrack/models"
	"fintrack/repository"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 收支记录
type TransactionHandler struct {
	store  *repository.Store
	ledger *service.LedgerService
}

// NewTransactionHandler 创建记录处理器
func NewTransactionHandler(store *repository.Store, ledger *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{store: store, ledger: ledger}
}

// CreateTransactionRequest 创建记录请求；currency 为空时沿用账户币种
type CreateTransactionRequest struct {
	Type        models.EntryType `json:"type" example:"expense"`
	Name        string           `json:"name" example:"Zakupy"`
	Amount      decimal.Decimal  `json:"amount" swaggertype:"string" example:"150.00"`
	Currency    models.Currency  `json:"currency" example:"PLN"`
	Date        string           `json:"date" example:"2024-01-15"`
	Category    string           `json:"category"`
	Account     string           `json:"account"`
	Description string           `json:"description"`
}

// UpdateTransactionRequest 更新记录请求
type UpdateTransactionRequest struct {
	Type        *models.EntryType `json:"type"`
	Name        *string           `json:"name"`
	Amount      *decimal.Decimal  `json:"amount" swaggertype:"string"`
	Currency    *models.Currency  `json:"currency"`
	Date        *string           `json:"date"`
	Category    *string           `json:"category"`
	Account     *string           `json:"account"`
	Description *string           `json:"description"`
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// parseDate 支持日期、日期时间与 RFC 3339
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &models.ValidationError{Field: "date", Reason: "expected 2006-01-02, 2006-01-02 15:04:05 or RFC 3339"}
}

// List 列出记录
// @Summary 获取收支记录
// @Description 按日期倒序，可按类型、账户、类别、日期范围过滤
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param type query string false "income / expense"
// @Param account query string false "账户ID"
// @Param category query string false "类别ID"
// @Param from query string false "开始日期（含）"
// @Param to query string false "结束日期（含当天）"
// @Param limit query int false "条数上限"
// @Success 200 {object} Response{data=[]models.Transaction} "获取成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var f repository.TransactionFilter
	if s := c.Query("type"); s != "" {
		typ, err := models.ParseEntryType(s)
		if err != nil {
			RespondError(c, err)
			return
		}
		f.Type = typ
	}
	f.AccountID = c.Query("account")
	f.CategoryID = c.Query("category")
	if s := c.Query("from"); s != "" {
		from, err := parseDate(s)
		if err != nil {
			RespondError(c, err)
			return
		}
		f.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseDate(s)
		if err != nil {
			RespondError(c, err)
			return
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if s := c.Query("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			BadRequest(c, "Nieprawidłowy limit.")
			return
		}
		f.Limit = limit
	}

	list, err := h.store.Transactions.List(c.Request.Context(), middleware.GetCurrentUserID(c), f)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Get 获取单条记录
// @Summary 获取收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	t, err := h.store.Transactions.Get(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, t)
}

// Create 创建记录并调整账户余额
// @Summary 创建收支记录
// @Description 写入记录并按收支类型调整账户余额；余额未能更新时返回 202
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "记录信息"
// @Success 201 {object} Response{data=IDResponse} "创建成功"
// @Success 202 {object} Response{data=PartialResult} "记录已保存，余额未更新"
// @Failure 400 {object} Response "参数错误"
// @Failure 409 {object} Response "并发冲突"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		RespondError(c, err)
		return
	}
	id, err := h.ledger.CreateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), &models.Transaction{
		Type:        req.Type,
		Name:        req.Name,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        date,
		CategoryID:  req.Category,
		AccountID:   req.Account,
		Description: req.Description,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Transakcja została dodana", IDResponse{ID: id})
}

// Update 更新记录
// @Summary 更新收支记录
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Param request body UpdateTransactionRequest true "更新字段"
// @Success 200 {object} Response "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	patch := models.TransactionPatch{
		Type:        req.Type,
		Name:        req.Name,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CategoryID:  req.Category,
		AccountID:   req.Account,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			RespondError(c, err)
			return
		}
		patch.Date = &date
	}
	if err := h.ledger.UpdateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"), patch); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Transakcja została zaktualizowana", nil)
}

// Delete 删除记录
// @Summary 删除收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	if err := h.ledger.DeleteTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Transakcja została usunięta", nil)
}
