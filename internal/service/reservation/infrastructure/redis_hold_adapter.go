// internal/service/reservation/infrastructure/redis_hold_adapter.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	pkgredis "souq/internal/pkg/redis"
	"souq/internal/service/reservation/domain"

	"github.com/pkg/errors"
)

// 占用与释放都必须是原子的：
// acquire 只有 key 不存在时才写入（带 TTL），
// release 只有持有者本人才能删，防止过期后误删别人的占用。
const (
	acquireScriptName = "reservation_hold_acquire"
	releaseScriptName = "reservation_hold_release"

	acquireScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
    return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`

	releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`
)

// RedisAdHoldAdapter 用 redis 实现广告的软占用。
// key 带 TTL，进程崩溃后占用随保留时长自然释放，不需要对账任务。
type RedisAdHoldAdapter struct {
	client *pkgredis.Client
}

func NewRedisAdHoldAdapter(client *pkgredis.Client) (*RedisAdHoldAdapter, error) {
	if err := client.LoadScriptFromContent(acquireScriptName, acquireScript); err != nil {
		return nil, errors.Wrap(err, "failed to load hold acquire script")
	}
	if err := client.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, errors.Wrap(err, "failed to load hold release script")
	}
	return &RedisAdHoldAdapter{client: client}, nil
}

var _ domain.AdHold = (*RedisAdHoldAdapter)(nil)

func holdKey(adID string) string {
	return fmt.Sprintf("souq:reservation:hold:%s", adID)
}

func (a *RedisAdHoldAdapter) Acquire(ctx context.Context, adID, reservationID string, ttl time.Duration) error {
	result, err := a.client.RunScript(ctx, acquireScriptName,
		[]string{holdKey(adID)}, reservationID, ttl.Milliseconds())
	if err != nil {
		return errors.Wrap(err, "failed to run hold acquire script")
	}
	if acquired, ok := result.(int64); !ok || acquired != 1 {
		return domain.ErrAdAlreadyHeld
	}
	return nil
}

func (a *RedisAdHoldAdapter) Release(ctx context.Context, adID, reservationID string) error {
	_, err := a.client.RunScript(ctx, releaseScriptName,
		[]string{holdKey(adID)}, reservationID)
	if err != nil {
		return errors.Wrap(err, "failed to run hold release script")
	}
	return nil
}
