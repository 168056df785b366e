package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/repository"
	"fintrack/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func testConfig(mode string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug", BaseURL: "http://localhost:8080"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Ledger: config.LedgerConfig{
			Consistency:         mode,
			MaxRetries:          3,
			AccountDeletePolicy: config.DeletePolicyBlock,
		},
	}
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

// setupMockDB 以 sqlmock 构造存储，用于模拟远端故障
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *repository.Store) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return mock, repository.NewStore(gormDB)
}

// testServer 按生产路由的形状挂载处理器
type testServer struct {
	router *gin.Engine
	store  *repository.Store
	cfg    *config.Config
}

func newTestServer(t *testing.T, store *repository.Store, mode string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(mode)
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })

	ledger := service.NewLedgerService(store, cfg.Ledger)
	authSvc := service.NewAuthService(store, service.NewEmailService(&cfg.Email), cfg.Server.BaseURL)

	r := gin.New()
	authHandler := NewAuthHandler(cfg, authSvc)
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/logout", authHandler.Logout)
	r.GET("/auth/google", authHandler.GoogleLogin)
	r.GET("/auth/google/callback", authHandler.GoogleCallback)
	r.POST("/auth/password/request-reset", authHandler.RequestPasswordReset)
	r.POST("/auth/password/reset", authHandler.ResetPassword)

	authorized := r.Group("")
	authorized.Use(middleware.JWTAuth())
	authorized.GET("/auth/profile", authHandler.GetProfile)

	accounts := NewAccountHandler(store, ledger)
	authorized.GET("/accounts", accounts.List)
	authorized.GET("/accounts/:id", accounts.Get)
	authorized.POST("/accounts", accounts.Create)
	authorized.PUT("/accounts/:id", accounts.Update)
	authorized.DELETE("/accounts/:id", accounts.Delete)

	categories := NewCategoryHandler(store)
	authorized.GET("/categories", categories.List)
	authorized.GET("/categories/defaults", categories.ListDefaults)
	authorized.POST("/categories", categories.Create)

	txs := NewTransactionHandler(store, ledger)
	authorized.GET("/transactions", txs.List)
	authorized.POST("/transactions", txs.Create)
	authorized.PUT("/transactions/:id", txs.Update)
	authorized.DELETE("/transactions/:id", txs.Delete)

	dashboard := NewDashboardHandler(service.NewDashboardService(store))
	authorized.GET("/dashboard", dashboard.Get)

	export := NewExportHandler(service.NewExportService(store))
	authorized.GET("/export/csv", export.ExportCSV)
	authorized.GET("/export/excel", export.ExportExcel)

	return &testServer{router: r, store: store, cfg: cfg}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = new(bytes.Buffer)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signUp 注册并返回令牌
func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	w := s.do("POST", "/auth/register", `{"email":"`+email+`","password":"secret123"}`, "")
	require.Equal(t, 200, w.Code, w.Body.String())
	resp := decode(t, w)
	data := resp["data"].(map[string]interface{})
	return data["token"].(string)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func authCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)

	w := s.do("POST", "/auth/register", `{"email":"anna@example.com","password":"secret123","display_name":"Anna"}`, "")
	assert.Equal(t, 200, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "Konto zostało utworzone pomyślnie", resp["message"])

	cookie := authCookie(w)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.InDelta(t, 3600, cookie.MaxAge, 5)

	w = s.do("POST", "/auth/register", `{"email":"ANNA@example.com","password":"secret123"}`, "")
	assert.Equal(t, 409, w.Code)
	assert.Equal(t, service.AuthMessage(service.ReasonEmailAlreadyInUse), decode(t, w)["message"])

	w = s.do("POST", "/auth/register", `{"email":"bob@example.com","password":"123"}`, "")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, service.AuthMessage(service.ReasonWeakPassword), decode(t, w)["message"])
}

func TestAuthHandler_LoginLogoutProfile(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)
	s.signUp(t, "anna@example.com")

	w := s.do("POST", "/auth/login", `{"email":"anna@example.com","password":"wrong-pass"}`, "")
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, service.AuthMessage(service.ReasonInvalidCredential), decode(t, w)["message"])

	w = s.do("POST", "/auth/login", `{"email":"anna@example.com","password":"secret123"}`, "")
	require.Equal(t, 200, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Pomyślnie zalogowano", resp["message"])
	token := resp["data"].(map[string]interface{})["token"].(string)

	w = s.do("GET", "/auth/profile", "", token)
	require.Equal(t, 200, w.Code)
	profile := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "anna@example.com", profile["email"])
	assert.NotContains(t, w.Body.String(), "$2a$")

	w = s.do("GET", "/auth/profile", "", "")
	assert.Equal(t, 401, w.Code)

	w = s.do("POST", "/auth/logout", "", token)
	assert.Equal(t, 200, w.Code)
	cookie := authCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)
	s.signUp(t, "anna@example.com")

	// 未注册的邮箱同样返回成功
	for _, email := range []string{"anna@example.com", "nobody@example.com"} {
		w := s.do("POST", "/auth/password/request-reset", `{"email":"`+email+`"}`, "")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "Link do resetowania hasła został wysłany na podany adres email", decode(t, w)["message"])
	}

	w := s.do("POST", "/auth/password/reset", `{"oobCode":"bogus","new_password":"newsecret"}`, "")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, service.AuthMessage(service.ReasonInvalidActionCode), decode(t, w)["message"])
}

func TestAuthHandler_Google(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)

	w := s.do("GET", "/auth/google", "", "")
	assert.Equal(t, 403, w.Code)
	assert.Equal(t, service.AuthMessage(service.ReasonOperationNotAllowed), decode(t, w)["message"])

	req := httptest.NewRequest("GET", "/auth/google/callback?state=forged&code=x", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected"})
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?error=invalid-action-code"))
}
