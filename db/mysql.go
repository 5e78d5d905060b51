package db

import (
	"database/sql"
	"time"

	"ai_book_recommend/config"

	_ "github.com/go-sql-driver/mysql"
)

var (
	DB *sql.DB // 数据库连接
)

// InitMySQLWithConfig 使用配置初始化数据库连接池
func InitMySQLWithConfig(cfg *config.Config) error {
	var err error
	DB, err = sql.Open("mysql", cfg.DB.DSN)
	if err != nil {
		return err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50 // 默认最大连接数
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10 // 默认最大空闲连接数
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 默认连接最大生命周期（分钟）
	}

	DB.SetMaxOpenConns(maxOpenConns)
	DB.SetMaxIdleConns(maxIdleConns)
	DB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	if err := DB.Ping(); err != nil {
		return err
	}

	return ensureSchema()
}

// ensureSchema 创建服务依赖的表（不存在时）
// kv_entries 存放限流状态和推荐缓存，generation_usage 存放生成用量记录
func ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv_entries (
			k VARCHAR(191) NOT NULL PRIMARY KEY,
			v MEDIUMTEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS generation_usage (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			uid VARCHAR(64) NOT NULL,
			profile_summary TEXT,
			prompt MEDIUMTEXT,
			model VARCHAR(128),
			prompt_tokens INT NOT NULL DEFAULT 0,
			completion_tokens INT NOT NULL DEFAULT 0,
			estimated_cost DOUBLE NOT NULL DEFAULT 0,
			recommendations MEDIUMTEXT,
			from_cache TINYINT(1) NOT NULL DEFAULT 0,
			reuse_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_uid_created (uid, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if _, err := DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
