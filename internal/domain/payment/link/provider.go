package link

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider 支付链接提供方
// 引擎只持有返回的链接字符串，网关侧的结算不在本服务范围内
type Provider interface {
	// PaymentLink 为订单生成支付链接
	PaymentLink(ctx context.Context, orderID string, amount decimal.Decimal) (string, error)
}

// GatewayProvider 默认提供方：生成不透明的网关链接标识
type GatewayProvider struct {
	BaseURL string
}

func NewGatewayProvider() *GatewayProvider {
	return &GatewayProvider{BaseURL: "https://payment-gateway.com/pay/"}
}

func (p *GatewayProvider) PaymentLink(_ context.Context, _ string, _ decimal.Decimal) (string, error) {
	return fmt.Sprintf("%s%s", p.BaseURL, uuid.New().String()), nil
}

var _ Provider = (*GatewayProvider)(nil)
