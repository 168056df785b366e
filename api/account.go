package api

import (
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/repository"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler 资金账户
type AccountHandler struct {
	store  *repository.Store
	ledger *service.LedgerService
}

// NewAccountHandler 创建账户处理器
func NewAccountHandler(store *repository.Store, ledger *service.LedgerService) *AccountHandler {
	return &AccountHandler{store: store, ledger: ledger}
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Name     string             `json:"name" example:"Konto główne"`
	Balance  decimal.Decimal    `json:"balance" swaggertype:"string" example:"1000.00"`
	Currency models.Currency    `json:"currency" example:"PLN"`
	Type     models.AccountType `json:"type" example:"bank"`
}

// UpdateAccountRequest 更新账户请求，未提供的字段保持不变
type UpdateAccountRequest struct {
	Name     *string             `json:"name"`
	Balance  *decimal.Decimal    `json:"balance" swaggertype:"string"`
	Currency *models.Currency    `json:"currency"`
	Type     *models.AccountType `json:"type"`
}

// IDResponse 创建成功返回的 ID
type IDResponse struct {
	ID string `json:"id"`
}

// List 列出账户
// @Summary 获取账户列表
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Account} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	list, err := h.store.Accounts.List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Get 获取单个账户
// @Summary 获取账户
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path string true "账户ID"
// @Success 200 {object} Response{data=models.Account} "获取成功"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.store.Accounts.Get(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, account)
}

// Create 创建账户
// @Summary 创建账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "账户信息"
// @Success 201 {object} Response{data=IDResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	id, err := h.store.Accounts.Create(c.Request.Context(), middleware.GetCurrentUserID(c), &models.Account{
		Name:     req.Name,
		Balance:  req.Balance,
		Currency: req.Currency,
		Type:     req.Type,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Konto zostało dodane", IDResponse{ID: id})
}

// Update 更新账户
// @Summary 更新账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "账户ID"
// @Param request body UpdateAccountRequest true "更新字段"
// @Success 200 {object} Response "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "账户不存在"
// @Router /api/v1/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	patch := models.AccountPatch{Name: req.Name, Balance: req.Balance, Currency: req.Currency, Type: req.Type}
	if err := h.store.Accounts.Update(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"), patch); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Konto zostało zaktualizowane", nil)
}

// Delete 删除账户
// @Summary 删除账户
// @Description 默认策略下，仍被记录引用的账户不能删除
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path string true "账户ID"
// @Success 200 {object} Response "删除成功"
// @Failure 409 {object} Response "账户仍被引用"
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.ledger.DeleteAccount(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Konto zostało usunięte", nil)
}
