package api

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/models"
	"fintrack/repository"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Created 201 响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// OutcomeBalanceNotUpdated 记录已保存但余额未更新
const OutcomeBalanceNotUpdated = "transaction_saved_balance_not_updated"

// PartialResult 部分成功时返回的数据
type PartialResult struct {
	Outcome       string `json:"outcome"`
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
}

// RespondError 按错误种类映射 HTTP 状态
// BalanceNotUpdatedError 包裹底层错误，必须最先判断。
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var partial *service.BalanceNotUpdatedError
	if errors.As(err, &partial) {
		slog.Warn("balance not updated", "component", "api", "path", c.Request.URL.Path,
			"transaction_id", partial.TransactionID, "account_id", partial.AccountID, "error", partial.Err)
		c.JSON(http.StatusAccepted, Response{
			Code:    http.StatusAccepted,
			Message: "Transakcja została zapisana, ale saldo konta nie zostało zaktualizowane.",
			Data: PartialResult{
				Outcome:       OutcomeBalanceNotUpdated,
				TransactionID: partial.TransactionID,
				AccountID:     partial.AccountID,
			},
		})
		return
	}

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		Error(c, authErr.HTTPStatus(), authErr.Message())
		return
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		BadRequest(c, "Nieprawidłowe dane: "+verr.Error())
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Nie znaleziono.")
	case errors.Is(err, repository.ErrAccountInUse):
		Error(c, http.StatusConflict, "Konto ma powiązane transakcje i nie może zostać usunięte.")
	case errors.Is(err, repository.ErrVersionConflict):
		Error(c, http.StatusConflict, "Dane zostały zmienione w międzyczasie. Spróbuj ponownie.")
	case errors.Is(err, repository.ErrSchemaMismatch):
		slog.Error("stored data does not match schema", "component", "api", "path", c.Request.URL.Path, "error", err)
		InternalError(c, "Zapisane dane są uszkodzone.")
	case errors.Is(err, repository.ErrRemoteUnavailable):
		slog.Error("store unavailable", "component", "api", "path", c.Request.URL.Path, "error", err)
		Error(c, http.StatusServiceUnavailable, "Usługa jest chwilowo niedostępna. Spróbuj ponownie później.")
	default:
		slog.Error("unexpected error", "component", "api", "path", c.Request.URL.Path, "error", err)
		InternalError(c, SafeErrorMessage(err, "Wystąpił nieoczekiwany błąd."))
	}
}
