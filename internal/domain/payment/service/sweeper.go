package service

import (
	"context"
	"time"

	"payment-service/pkg/logger"
	"payment-service/pkg/metrics"

	"go.uber.org/zap"
)

// Sweeper 过期链接扫描器
// 独立于请求处理按固定周期运行，与 process/handleOrderEvent 对同一支付单的
// 竞争由存储层的状态守卫更新裁决
type Sweeper struct {
	service  PaymentService
	interval time.Duration
}

func NewSweeper(service PaymentService, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
	}
}

// Start 启动扫描协程，ctx 取消后退出
func (w *Sweeper) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Sweeper) run(ctx context.Context) {
	logger.Log.Info("Expiry sweeper started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	expired, err := w.service.ExpireOverdueLinks(ctx)
	if err != nil {
		// 本轮扫描失败，下个周期重新来过
		logger.Log.Error("Expiry sweep failed", zap.Error(err))
		return
	}

	if metrics.Global != nil {
		metrics.Global.RecordSweep(expired, time.Since(start))
	}
	if expired > 0 {
		logger.Log.Info("Expiry sweep finished",
			zap.Int("expired", expired),
			zap.Duration("cost", time.Since(start)))
	}
}
