package result

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/platform/database"
	"github.com/SlpAus/anon-voting-backend/pkg/lifecycle"
)

const refreshInterval = 30 * time.Second // 活跃选举计票缓存的刷新频率

// WarmupCache 将所有active选举的计票结果预热到Redis。
// 在应用启动和Redis重启后的缓存重建中被调用。
func (s *Service) WarmupCache(ctx context.Context) error {
	var active []election.Election
	if err := s.db.WithContext(ctx).
		Where("status = ?", election.StatusActive).
		Find(&active).Error; err != nil {
		return fmt.Errorf("查询active选举失败: %w", err)
	}

	for _, e := range active {
		results, err := s.computeFromDB(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("预热选举 %s 的计票缓存失败: %w", e.ID, err)
		}
		s.cache.Set(ctx, e.ID, results)
	}

	fmt.Printf("成功预热 %d 场active选举的计票缓存。\n", len(active))
	return nil
}

// StartCacheRefresher 启动一个后台Goroutine，定期重算active选举的计票缓存。
// 它接收一个lifecycle.Handle来管理其生命周期，在停机广播后立刻退出。
func StartCacheRefresher(handle *lifecycle.Handle, svc *Service) {
	defer handle.Close() // 确保在退出时通知管理器
	fmt.Println("计票缓存刷新器已启动。")

	for {
		// 可中断的休眠，收到停机信号时立刻从休眠中唤醒并退出
		if err := handle.Sleep(refreshInterval); err != nil {
			fmt.Println("计票缓存刷新器: 休眠被中断，正在关闭...")
			return
		}

		if !database.IsRedisHealthy() {
			continue
		}

		if err := svc.WarmupCache(handle.Ctx()); err != nil {
			// 停机信号导致的错误静默退出
			if handle.Err() != nil {
				return
			}
			fmt.Printf("计票缓存刷新器错误: %v\n", err)
		}
	}
}
