package service

import (
	"errors"
	"net/http"
)

// AuthReason 身份认证失败的分类
type AuthReason string

const (
	ReasonInvalidEmail               AuthReason = "invalid-email"
	ReasonEmailAlreadyInUse          AuthReason = "email-already-in-use"
	ReasonWeakPassword               AuthReason = "weak-password"
	ReasonInvalidCredential          AuthReason = "invalid-credential"
	ReasonUserDisabled               AuthReason = "user-disabled"
	ReasonTooManyRequests            AuthReason = "too-many-requests"
	ReasonNetworkRequestFailed       AuthReason = "network-request-failed"
	ReasonPopupClosedByUser          AuthReason = "popup-closed-by-user"
	ReasonOperationNotAllowed        AuthReason = "operation-not-allowed"
	ReasonAccountExistsDifferentCred AuthReason = "account-exists-with-different-credential"
	ReasonInvalidActionCode          AuthReason = "invalid-action-code"
	ReasonExpiredActionCode          AuthReason = "expired-action-code"
	ReasonUnknown                    AuthReason = "unknown"
)

// 面向用户的固定提示（pl-PL）
var authMessages = map[AuthReason]string{
	ReasonEmailAlreadyInUse:          "Ten adres email jest już używany. Spróbuj się zalogować lub użyj innego adresu email.",
	ReasonInvalidEmail:               "Nieprawidłowy adres email.",
	ReasonOperationNotAllowed:        "Ta metoda logowania nie jest włączona. Skontaktuj się z administratorem.",
	ReasonWeakPassword:               "Hasło jest zbyt słabe. Użyj co najmniej 6 znaków.",
	ReasonUserDisabled:               "To konto zostało wyłączone. Skontaktuj się z administratorem.",
	ReasonInvalidCredential:          "Nieprawidłowy email lub hasło.",
	ReasonTooManyRequests:            "Zbyt wiele prób logowania. Spróbuj ponownie później.",
	ReasonNetworkRequestFailed:       "Problem z połączeniem sieciowym. Sprawdź swoje połączenie internetowe.",
	ReasonPopupClosedByUser:          "Okno logowania zostało zamknięte. Spróbuj ponownie.",
	ReasonAccountExistsDifferentCred: "Konto z tym adresem email już istnieje, ale używa innej metody logowania.",
	ReasonInvalidActionCode:          "Link do resetowania hasła jest nieprawidłowy lub został już użyty.",
	ReasonExpiredActionCode:          "Link do resetowania hasła wygasł. Poproś o nowy.",
}

const genericAuthMessage = "Wystąpił nieoczekiwany błąd. Spróbuj ponownie później."

// AuthMessage 分类对应的提示，未知分类返回通用提示
func AuthMessage(reason AuthReason) string {
	if msg, ok := authMessages[reason]; ok {
		return msg
	}
	return genericAuthMessage
}

// AuthError 身份认证失败
type AuthError struct {
	Reason AuthReason
	Err    error
}

func newAuthError(reason AuthReason, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return string(e.Reason) + ": " + e.Err.Error()
	}
	return string(e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message 面向用户的提示
func (e *AuthError) Message() string {
	return AuthMessage(e.Reason)
}

// HTTPStatus 分类对应的 HTTP 状态码
func (e *AuthError) HTTPStatus() int {
	switch e.Reason {
	case ReasonInvalidEmail, ReasonWeakPassword, ReasonInvalidActionCode, ReasonExpiredActionCode, ReasonPopupClosedByUser:
		return http.StatusBadRequest
	case ReasonInvalidCredential:
		return http.StatusUnauthorized
	case ReasonUserDisabled, ReasonOperationNotAllowed:
		return http.StatusForbidden
	case ReasonEmailAlreadyInUse, ReasonAccountExistsDifferentCred:
		return http.StatusConflict
	case ReasonTooManyRequests:
		return http.StatusTooManyRequests
	case ReasonNetworkRequestFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// IsAuthReason 判断错误是否为指定分类的 AuthError
func IsAuthReason(err error, reason AuthReason) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Reason == reason
}
