package link

import (
	"context"
	"errors"

	"payment-service/internal/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/native"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

// WechatProvider 通过微信 Native 支付生成扫码链接 (code_url)
type WechatProvider struct {
	client *core.Client
	config config.WechatPayConfig
}

func NewWechatProvider() (*WechatProvider, error) {
	cfg := config.GlobalConfig.Wechat
	if cfg.MchID == "" {
		return nil, errors.New("wechat pay config missing")
	}

	// 1. 加载商户私钥
	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	// 2. 初始化 Client
	ctx := context.Background()
	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	}

	client, err := core.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &WechatProvider{
		client: client,
		config: cfg,
	}, nil
}

// PaymentLink 生成 Native 支付二维码链接
func (p *WechatProvider) PaymentLink(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	// 金额转换为分
	amountFen := amount.Shift(2).IntPart()

	req := native.PrepayRequest{
		Appid:       core.String(p.config.AppID),
		Mchid:       core.String(p.config.MchID),
		Description: core.String("Order " + orderID),
		OutTradeNo:  core.String(orderID),
		NotifyUrl:   core.String(p.config.NotifyURL),
		Amount: &native.Amount{
			Total: core.Int64(amountFen),
		},
	}

	svc := native.NativeApiService{Client: p.client}
	resp, _, err := svc.Prepay(ctx, req)
	if err != nil {
		return "", err
	}

	return *resp.CodeUrl, nil
}

var _ Provider = (*WechatProvider)(nil)
