package startup

import (
	"fmt"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/platform/database"
	"github.com/SlpAus/anon-voting-backend/internal/result"
	"github.com/SlpAus/anon-voting-backend/internal/user"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
)

// InitializeApplication 是应用首次启动时执行的总入口：
// 迁移各模块的表结构，然后预热计票缓存。
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := user.Migrate(database.DB); err != nil {
		return err
	}
	if err := election.Migrate(database.DB); err != nil {
		return err
	}
	if err := vote.Migrate(database.DB); err != nil {
		return err
	}

	if err := RebuildCache(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 重建Redis中的计票缓存。
// 在启动时和健康检查器检测到Redis重启后被调用。
func RebuildCache() error {
	svc := result.NewService(database.DB, result.NewCache(database.RDB))
	return svc.WarmupCache(database.Ctx)
}
