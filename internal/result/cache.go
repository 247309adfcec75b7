package result

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// TallyKeyPrefix 是计票结果缓存在Redis中的键名前缀。
// 完整键名为 result:tally:<electionID>，值为ElectionResults的JSON序列化。
const TallyKeyPrefix = "result:tally:"

// cacheTTL 是缓存条目的存活时间。
// 失效DEL丢失时（例如投票提交后Redis恰好抖动），TTL保证新鲜度的上限。
const cacheTTL = 60 * time.Second

// Cache 是计票结果的Redis加速层。
// 它只是加速器：任何失败都静默降级，读路径总能退回数据库。
// 空指针接收者也可安全调用，测试中可以直接传nil。
type Cache struct {
	rdb *redis.Client
}

// NewCache 创建一个计票缓存。rdb可以为nil（禁用缓存）。
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil && database.IsRedisHealthy()
}

// Get 尝试从缓存读取一场选举的计票结果。
func (c *Cache) Get(ctx context.Context, electionID string) (*ElectionResults, bool) {
	if !c.enabled() {
		return nil, false
	}

	payload, err := c.rdb.Get(ctx, TallyKeyPrefix+electionID).Bytes()
	if err != nil {
		return nil, false
	}

	var results ElectionResults
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, false
	}
	return &results, true
}

// Set 将一场选举的计票结果写入缓存。
func (c *Cache) Set(ctx context.Context, electionID string, results *ElectionResults) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, TallyKeyPrefix+electionID, payload, cacheTTL).Err(); err != nil {
		fmt.Printf("计票缓存: 写入失败 (election=%s): %v\n", electionID, err)
	}
}

// Invalidate 删除一场选举的缓存条目。
// 在投票提交后调用；删除失败只会让新鲜度延迟到TTL过期，不影响正确性。
func (c *Cache) Invalidate(electionID string) {
	if !c.enabled() {
		return
	}

	if err := c.rdb.Del(database.Ctx, TallyKeyPrefix+electionID).Err(); err != nil {
		fmt.Printf("计票缓存: 失效失败 (election=%s): %v\n", electionID, err)
	}
}
