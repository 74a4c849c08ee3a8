package payment

import (
	"time"

	"payment-service/internal/domain/payment/consumer"
	"payment-service/internal/domain/payment/handler"
	"payment-service/internal/domain/payment/link"
	"payment-service/internal/domain/payment/repository"
	"payment-service/internal/domain/payment/service"
	"payment-service/internal/pkg/config"
	"payment-service/internal/pkg/eventbus"
	"payment-service/internal/pkg/middleware"
	"payment-service/internal/pkg/registry"
	"payment-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentGrant initiate 接口要求的访问授权
const PaymentGrant = "payment-service-access"

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	return 10
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig

	// 1. 依赖注入
	repo := repository.NewPaymentRepository(ctx.DB)
	bus := eventbus.NewBus(ctx.Redis)
	provider := newLinkProvider(cfg.Payment.LinkProvider)

	svc := service.NewPaymentService(
		repo,
		bus,
		provider,
		cfg.Streams.PaymentTopic,
		time.Duration(cfg.Payment.LinkTTLMinutes)*time.Minute,
	)

	// 2. 后台任务：订单事件消费 + 过期扫描
	orderConsumer := consumer.NewOrderEventConsumer(
		svc, bus,
		cfg.Streams.OrderTopic,
		cfg.Streams.Group,
		cfg.Streams.Consumer,
	)
	orderConsumer.Start(ctx.Ctx)

	sweeper := service.NewSweeper(svc, time.Duration(cfg.Payment.SweepIntervalSeconds)*time.Second)
	sweeper.Start(ctx.Ctx)

	// 3. 路由注册
	setupRoutes(ctx.Router, handler.NewPaymentHandler(svc))

	return nil
}

// newLinkProvider 按配置选择链接提供方，配置缺失时回退到默认网关
func newLinkProvider(name string) link.Provider {
	switch name {
	case "alipay":
		p, err := link.NewAlipayProvider()
		if err != nil {
			logger.Log.Error("Failed to init Alipay link provider, falling back to gateway: " + err.Error())
			return link.NewGatewayProvider()
		}
		return p
	case "wechat":
		p, err := link.NewWechatProvider()
		if err != nil {
			logger.Log.Error("Failed to init Wechat link provider, falling back to gateway: " + err.Error())
			return link.NewGatewayProvider()
		}
		return p
	default:
		return link.NewGatewayProvider()
	}
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/api/payments")
	g.Use(middleware.AuthMiddleware())

	// initiate 要求 payment-service-access 授权，其余接口任意已认证调用方
	g.POST("/initiate", middleware.RequireGrant(PaymentGrant), h.InitiatePayment)
	g.POST("/:id/process", h.ProcessPayment)
}
