package service

import "errors"

// 业务哨兵错误，handler 层通过 errors.Is 映射为响应码。
var (
	ErrNotFound               = errors.New("记录不存在")
	ErrInvalidCredentials     = errors.New("用户名或密码错误")
	ErrInvalidPassword        = errors.New("原密码错误")
	ErrUnknownReferralCode    = errors.New("推广码无法识别")
	ErrAffiliateInactive      = errors.New("合作伙伴未激活")
	ErrAffiliateStatusInvalid = errors.New("合作伙伴状态不合法")
	ErrCodeGenerationExhausted = errors.New("推广码生成重试次数已用尽")
	ErrInsufficientBalance    = errors.New("可提现余额不足")
	ErrInvalidTransition      = errors.New("提现状态流转不合法")
	ErrPayoutAmountInvalid    = errors.New("提现金额不合法")
	ErrReferralStatusInvalid  = errors.New("归因记录状态不合法")
	ErrConversionInvalid      = errors.New("转化事件参数不合法")
	ErrInvalidInput           = errors.New("请求参数不合法")
	ErrPermissionDenied       = errors.New("没有操作权限")
	ErrAffiliateConfigInvalid = errors.New("推广配置不合法")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrInvalidEmail              = errors.New("邮箱地址不合法")
)
