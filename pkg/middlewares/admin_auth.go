package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminRealm = "payment-key-validator admin"

// AdminAuth requires HTTP basic credentials for the admin account. The console is a
// plain HTML form, so basic auth is the one scheme a browser can answer without script.
// An empty password disables the check and access control is left to the network.
func AdminAuth(logger *zap.Logger, user, password string) gin.HandlerFunc {
	if password == "" {
		logger.Warn("admin_auth_disabled")
		return func(c *gin.Context) { c.Next() }
	}
	return gin.BasicAuthForRealm(gin.Accounts{user: password}, adminRealm)
}
