package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 认证错误 100xx
	ErrTokenInvalid = 10001
	ErrNoPermission = 10002

	// 支付模块错误 200xx
	ErrPaymentNotFound = 20001
	ErrPaymentConflict = 20002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrServiceBusy     = 50004
)
