package admin

import (
	handlershared "github.com/reflink-next/internal/http/handlers/shared"
	"github.com/reflink-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

// auditActor 从请求上下文构造审计操作者
func auditActor(c *gin.Context) (service.AuditActor, bool) {
	id, ok := getAdminID(c)
	if !ok {
		return service.AuditActor{}, false
	}
	username := ""
	if value, exists := c.Get("admin_username"); exists {
		if name, ok := value.(string); ok {
			username = name
		}
	}
	return service.AuditActor{
		ID:    &id,
		Email: username,
		Role:  "admin",
	}, true
}
