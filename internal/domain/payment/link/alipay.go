package link

import (
	"context"
	"errors"

	"payment-service/internal/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/smartwalle/alipay/v3"
)

// AlipayProvider 通过支付宝网页支付生成收银台链接
type AlipayProvider struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayProvider() (*AlipayProvider, error) {
	cfg := config.GlobalConfig.Alipay
	if cfg.AppID == "" {
		return nil, errors.New("alipay config missing")
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 加载支付宝公钥 (用于验证签名)
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayProvider{
		client: client,
		config: cfg,
	}, nil
}

// PaymentLink 生成网页支付跳转链接
func (p *AlipayProvider) PaymentLink(_ context.Context, orderID string, amount decimal.Decimal) (string, error) {
	pay := alipay.TradePagePay{}
	pay.NotifyURL = p.config.NotifyURL
	pay.ReturnURL = p.config.ReturnURL
	pay.Subject = "Order " + orderID
	pay.OutTradeNo = orderID
	pay.TotalAmount = amount.StringFixed(2)
	pay.ProductCode = "FAST_INSTANT_TRADE_PAY" // 网页支付产品码

	result, err := p.client.TradePagePay(pay)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

var _ Provider = (*AlipayProvider)(nil)
