package router

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/api"
	"fintrack/config"
	_ "fintrack/docs"
	"fintrack/middleware"
	"fintrack/repository"
	"fintrack/service"
	"fintrack/web"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services 路由依赖的服务
type Services struct {
	Store     *repository.Store
	Ledger    *service.LedgerService
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	Export    *service.ExportService
}

// NewServices 按配置组装服务
func NewServices(cfg *config.Config, store *repository.Store) *Services {
	opts := []service.AuthOption{service.WithDebug(!config.IsRelease())}
	// 未启用时返回 nil，不能直接作为接口传入
	if google := service.NewGoogleProvider(cfg.OAuth.Google); google != nil {
		opts = append(opts, service.WithFederatedProvider(google))
	}
	return &Services{
		Store:     store,
		Ledger:    service.NewLedgerService(store, cfg.Ledger),
		Auth:      service.NewAuthService(store, service.NewEmailService(&cfg.Email), cfg.Server.BaseURL, opts...),
		Dashboard: service.NewDashboardService(store),
		Export:    service.NewExportService(store),
	}
}

// pagePaths 返回页面外壳的路径，由 RouteGuard 决定放行或跳转
var pagePaths = []string{
	"/", "/login", "/register", "/reset-password",
	"/dashboard", "/dashboard/*path",
	"/accounts", "/accounts/*path",
	"/transactions", "/transactions/*path",
	"/categories", "/categories/*path",
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// 嵌入的页面外壳
	staticFS, _ := fs.Sub(web.StaticFS, ".")
	servePage := func(c *gin.Context) {
		content, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "Nie udało się wczytać strony.")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", content)
	}
	pages := r.Group("")
	pages.Use(middleware.RouteGuard())
	for _, p := range pagePaths {
		pages.GET(p, servePage)
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg, svc.Auth)
		loginLimit := middleware.LoginRateLimit(cfg.Security.LoginMaxAttempts, cfg.Security.LoginWindow())
		auth := v1.Group("/auth")
		{
			auth.POST("/register", loginLimit, authHandler.Register)
			auth.POST("/login", loginLimit, authHandler.Login)
			auth.GET("/google", authHandler.GoogleLogin)
			auth.GET("/google/callback", loginLimit, authHandler.GoogleCallback)
			auth.POST("/password/request-reset", loginLimit, authHandler.RequestPasswordReset)
			auth.POST("/password/reset", loginLimit, authHandler.ResetPassword)
			auth.POST("/logout", authHandler.Logout)
		}

		categoryHandler := api.NewCategoryHandler(svc.Store)
		v1.GET("/icons", categoryHandler.Icons)

		// 需要登录的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			accountHandler := api.NewAccountHandler(svc.Store, svc.Ledger)
			accounts := authorized.Group("/accounts")
			{
				accounts.GET("", accountHandler.List)
				accounts.POST("", accountHandler.Create)
				accounts.GET("/:id", accountHandler.Get)
				accounts.PUT("/:id", accountHandler.Update)
				accounts.DELETE("/:id", accountHandler.Delete)
			}

			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.GET("/defaults", categoryHandler.ListDefaults)
				categories.POST("", categoryHandler.Create)
				categories.GET("/:id", categoryHandler.Get)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			transactionHandler := api.NewTransactionHandler(svc.Store, svc.Ledger)
			transactions := authorized.Group("/transactions")
			{
				transactions.GET("", transactionHandler.List)
				transactions.POST("", transactionHandler.Create)
				transactions.GET("/:id", transactionHandler.Get)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.DELETE("/:id", transactionHandler.Delete)
			}

			authorized.GET("/dashboard", api.NewDashboardHandler(svc.Dashboard).Get)

			exportHandler := api.NewExportHandler(svc.Export)
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
// 只对 allowed 中的来源回写 Origin 并允许携带 Cookie，其余来源不返回 CORS 头
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(c *gin.Context) {
		c.Writer.Header().Add("Vary", "Origin")
		origin := c.GetHeader("Origin")
		if _, ok := origins[origin]; ok && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
