package database

import (
	"fmt"
	"log"
	"os"

	"github.com/SlpAus/anon-voting-backend/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的GORM数据库实例，供项目其他部分使用
var DB *gorm.DB

// InitDB 根据配置初始化数据库连接
// 开发环境默认使用SQLite，生产环境通过配置切换到PostgreSQL
func InitDB(cfg config.DatabaseConfig) {
	var err error

	// GORM日志配置
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent, // 在生产环境中可以设为Silent
			Colorful:      true,
		},
	)

	// 根据配置选择数据库驱动
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Postgres.DSN)
	default:
		dialector = sqlite.Open(cfg.Sqlite.Path)
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
		// 把驱动层的唯一键冲突统一翻译为 gorm.ErrDuplicatedKey，
		// 投票核心依赖这个错误来识别并发下的重复投票
		TranslateError: true,
	})

	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}

	fmt.Println("数据库连接成功！")
}
