package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/repository"
	"fintrack/router"

	"github.com/spf13/cobra"
)

// @title Fintrack API
// @version 1.0
// @description 个人记账 API：账户、类别、收支记录、仪表盘与数据导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile string
	port       string
	version    = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fintrack",
		Short:         "个人记账服务",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "外部配置文件路径（可选）")
	cmd.PersistentFlags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")

	cmd.AddCommand(
		&cobra.Command{Use: "serve", Short: "启动 HTTP 服务", RunE: runServe},
		&cobra.Command{Use: "seed-defaults", Short: "补齐默认类别", RunE: runSeed},
		&cobra.Command{Use: "reconcile", Short: "重放未应用的余额变动", RunE: runReconcile},
		&cobra.Command{
			Use:   "version",
			Short: "显示版本信息",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "fintrack v%s\n", version)
			},
		},
	)
	return cmd
}

// setup 加载配置、初始化日志与数据库
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	middleware.InitJWT(cfg)
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc := router.NewServices(cfg, repository.NewStore(database.GetDB()))
	if cfg.Ledger.RecoverOnStart {
		res, err := svc.Ledger.Reconcile(ctx, "")
		if err != nil {
			slog.Error("startup reconcile failed", "component", "main", "error", err)
		} else {
			slog.Info("startup reconcile finished", "component", "main",
				"applied", res.Applied, "discarded", res.Discarded, "failed", res.Failed)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.SetupRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "component", "main",
			"addr", cfg.Server.Port,
			"swagger", "http://localhost"+cfg.Server.Port+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "component", "main")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if _, err := setup(); err != nil {
		return err
	}
	n, err := database.SeedDefaultCategories(database.GetDB())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已补齐默认类别: %d\n", n)
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	svc := router.NewServices(cfg, repository.NewStore(database.GetDB()))
	res, err := svc.Ledger.Reconcile(cmd.Context(), "")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied=%d discarded=%d failed=%d\n", res.Applied, res.Discarded, res.Failed)
	return nil
}
