package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

// CreditCheck 故事创建前的额度预检。服务层还会再判一次，
// 这里提前拦截省掉一次无效的请求体解析
func CreditCheck(creditService *service.CreditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		decision, err := creditService.CanCreateStory(userID)
		if err != nil {
			response.ServerError(c, "额度检查失败")
			c.Abort()
			return
		}

		if !decision.Allowed {
			response.CreditError(c, decision.Reason)
			c.Abort()
			return
		}

		c.Next()
	}
}
