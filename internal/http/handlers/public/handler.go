package public

import "github.com/reflink-next/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器用于访问上报、转化归因、提现申请与排行榜等无鉴权 API。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
