package retry

import (
	"context"
	"time"

	"payment-service/pkg/errs"
)

// 默认策略：最多 3 次，固定 1 秒间隔
const (
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
)

// Do 以固定间隔重试 fn
// 只有 Transient 类错误会触发重试，业务类错误（参数、冲突、不存在）立即返回
func Do(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errs.IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
