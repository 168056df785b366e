package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigYAML 内置默认配置
//
//go:embed default.yaml
var DefaultConfigYAML []byte

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
	// AllowedOrigins 允许跨域携带凭据的来源
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig 数据库配置，driver 为 mysql 或 sqlite
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	Charset    string `mapstructure:"charset"`
}

// JWTConfig JWT配置（会话标记）
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// OAuthConfig 联合登录配置
type OAuthConfig struct {
	Google GoogleOAuthConfig `mapstructure:"google"`
}

// GoogleOAuthConfig Google OAuth2 客户端
type GoogleOAuthConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// 记账一致性模式
const (
	ConsistencyAtomic     = "atomic"
	ConsistencyJournaled  = "journaled"
	ConsistencySequential = "sequential"
)

// 删除账户策略
const (
	DeletePolicyBlock = "block"
	DeletePolicyAllow = "allow"
)

// LedgerConfig 记账流程配置
type LedgerConfig struct {
	Consistency         string `mapstructure:"consistency"`
	MaxRetries          int    `mapstructure:"max_retries"`
	SymmetricEdits      bool   `mapstructure:"symmetric_edits"`
	AccountDeletePolicy string `mapstructure:"account_delete_policy"`
	RecoverOnStart      bool   `mapstructure:"recover_on_start"`
}

// SecurityConfig 登录限流
type SecurityConfig struct {
	LoginMaxAttempts   int `mapstructure:"login_max_attempts"`
	LoginWindowSeconds int `mapstructure:"login_window_seconds"`
}

// LoginWindow 限流窗口
func (s SecurityConfig) LoginWindow() time.Duration {
	return time.Duration(s.LoginWindowSeconds) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	// 2. 外部配置文件（可选）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
		slog.Info("merged config file", "component", "config", "path", configPath)
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/fintrack")
		externalViper.AddConfigPath("$HOME/.fintrack")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				slog.Warn("merge external config failed", "component", "config", "error", err)
			} else {
				slog.Info("merged config file", "component", "config", "path", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. .env 与环境变量覆盖，例如 FINTRACK_DATABASE_DRIVER=mysql
	_ = godotenv.Load()
	v.SetEnvPrefix("FINTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 1
	}
	c.JWT.ExpireTime = time.Duration(c.JWT.ExpireHours) * time.Hour
	if c.Ledger.Consistency == "" {
		c.Ledger.Consistency = ConsistencyAtomic
	}
	if c.Ledger.MaxRetries <= 0 {
		c.Ledger.MaxRetries = 1
	}
	if c.Ledger.AccountDeletePolicy == "" {
		c.Ledger.AccountDeletePolicy = DeletePolicyBlock
	}
	if c.Security.LoginMaxAttempts <= 0 {
		c.Security.LoginMaxAttempts = 10
	}
	if c.Security.LoginWindowSeconds <= 0 {
		c.Security.LoginWindowSeconds = 60
	}
}

// Validate 校验枚举类配置项
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q must be mysql or sqlite", c.Database.Driver))
	}
	switch c.Ledger.Consistency {
	case ConsistencyAtomic, ConsistencyJournaled, ConsistencySequential:
	default:
		problems = append(problems, fmt.Sprintf("ledger.consistency %q must be atomic, journaled or sequential", c.Ledger.Consistency))
	}
	switch c.Ledger.AccountDeletePolicy {
	case DeletePolicyBlock, DeletePolicyAllow:
	default:
		problems = append(problems, fmt.Sprintf("ledger.account_delete_policy %q must be block or allow", c.Ledger.AccountDeletePolicy))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			problems = append(problems, "server.allowed_origins must list explicit origins, not *")
		}
	}
	if c.Server.Mode == "release" && (c.JWT.Secret == "" || c.JWT.Secret == "change-me-in-production") {
		problems = append(problems, "jwt.secret must be set in release mode")
	}
	if c.OAuth.Google.Enabled && (c.OAuth.Google.ClientID == "" || c.OAuth.Google.ClientSecret == "") {
		problems = append(problems, "oauth.google.client_id and client_secret are required when enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustLoadConfig 加载配置，失败则 panic
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// GetConfig 获取全局配置，未加载时返回 nil
func GetConfig() *Config {
	return GlobalConfig
}

// IsRelease 是否为生产模式
func IsRelease() bool {
	return GlobalConfig != nil && GlobalConfig.Server.Mode == "release"
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	if err == nil || IsRelease() {
		return fallback
	}
	return err.Error()
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	c := GlobalConfig
	attrs := []any{
		"component", "config",
		"port", c.Server.Port,
		"mode", c.Server.Mode,
		"db_driver", c.Database.Driver,
		"ledger_consistency", c.Ledger.Consistency,
		"symmetric_edits", c.Ledger.SymmetricEdits,
		"account_delete_policy", c.Ledger.AccountDeletePolicy,
		"email_enabled", c.Email.Enabled,
		"google_enabled", c.OAuth.Google.Enabled,
	}
	if c.Database.Driver == "mysql" {
		attrs = append(attrs, "db", fmt.Sprintf("%s@%s:%s/%s", c.Database.Username, c.Database.Host, c.Database.Port, c.Database.DBName))
	} else {
		attrs = append(attrs, "db", c.Database.SQLitePath)
	}
	slog.Info("current config", attrs...)
}

// NewLogger 按日志配置构造 slog 记录器
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
