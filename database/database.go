package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/config"
	"fintrack/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接、迁移表结构并补齐默认类别
func Init(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	if _, err := SeedDefaultCategories(db); err != nil {
		return err
	}
	DB = db
	slog.Info("database initialized", "component", "database", "driver", cfg.Database.Driver)
	return nil
}

// Open 按配置选择 mysql 或 sqlite 驱动
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Info
	if cfg.Server.Mode == "release" {
		level = logger.Warn
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	switch cfg.Database.Driver {
	case "mysql":
		// 构建 MySQL DSN 连接字符串
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.DBName,
			cfg.Database.Charset,
		)
		db, err := gorm.Open(mysql.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// 设置连接池参数
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		return db, nil

	case "sqlite":
		path := cfg.Database.SQLitePath
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("创建数据目录失败: %w", err)
			}
		}
		return OpenSQLite(path, gcfg)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// OpenSQLite 打开 sqlite 数据库；单连接，写入串行化
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gcfg)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate 自动迁移数据库表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Account{},
		&models.Category{},
		&models.Transaction{},
		&models.BalanceAdjustment{},
	); err != nil {
		return err
	}
	// 默认类别与用户类别同构，单独建表
	if err := db.Table(models.DefaultCategoriesTable).AutoMigrate(&models.Category{}); err != nil {
		return err
	}

	// 兼容历史数据：老版本没有 status 字段，默认设置为 active，避免升级后无法登录
	return db.Model(&models.User{}).
		Where("status IS NULL OR status = ''").
		Update("status", models.UserStatusActive).Error
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
