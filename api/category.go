package api

import (
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/repository"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 收支类别
type CategoryHandler struct {
	store *repository.Store
}

func NewCategoryHandler(store *repository.Store) *CategoryHandler {
	return &CategoryHandler{store: store}
}

type CategoryCreateRequest struct {
	Name  string           `json:"name" example:"Jedzenie"`
	Type  models.EntryType `json:"type" example:"expense"`
	Color string           `json:"color" example:"#ef4444"`
	Icon  string           `json:"icon" example:"ShoppingCart"`
}

type CategoryUpdateRequest struct {
	Name  *string           `json:"name"`
	Type  *models.EntryType `json:"type"`
	Color *string           `json:"color"`
	Icon  *string           `json:"icon"`
}

// List 用户自定义类别
// @Summary 获取用户类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.store.Categories.List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// ListDefaults 系统默认类别
// @Summary 获取默认类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories/defaults [get]
func (h *CategoryHandler) ListDefaults(c *gin.Context) {
	list, err := h.store.Categories.ListDefaults(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Get 用户类别或默认类别
// @Summary 获取类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.store.Categories.Resolve(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, cat)
}

// Create 创建类别
// @Summary 创建类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 201 {object} Response{data=IDResponse} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	if req.Color == "" {
		req.Color = "#64748b" // 默认灰色
	}
	id, err := h.store.Categories.Create(c.Request.Context(), middleware.GetCurrentUserID(c), &models.Category{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, "Kategoria została dodana", IDResponse{ID: id})
}

// Update 更新类别
// @Summary 更新类别
// @Description 默认类别只读，只能更新用户类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Param request body CategoryUpdateRequest true "更新字段"
// @Success 200 {object} Response "更新成功"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Nieprawidłowe dane formularza.")
		return
	}
	patch := models.CategoryPatch{Name: req.Name, Type: req.Type, Color: req.Color, Icon: req.Icon}
	if err := h.store.Categories.Update(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id"), patch); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Kategoria została zaktualizowana", nil)
}

// Delete 删除类别
// @Summary 删除类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.store.Categories.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "Kategoria została usunięta", nil)
}

// Icons 可选图标
// @Summary 获取可选图标
// @Tags 类别
// @Produce json
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/v1/icons [get]
func (h *CategoryHandler) Icons(c *gin.Context) {
	Success(c, models.Icons())
}
