// Package session exposes the session pointer to clients
package session

import (
	"bitwise74/otp-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type clearBody struct {
	PreserveVerification bool `json:"preserve_verification" form:"preserve_verification"`
}

// SessionClear empties the session. With preserve_verification a pending
// verification email survives so the code can still be entered.
func SessionClear(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data clearBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&data); err != nil {
			status, msg := middleware.BindError(err)
			c.JSON(status, gin.H{
				"error":     msg,
				"requestID": requestID,
			})
			return
		}
	}

	middleware.Session(c).Clear(data.PreserveVerification)
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// SessionFetch tells the client where it stands without exposing the token
func SessionFetch(c *gin.Context) {
	sess := middleware.Session(c)

	c.JSON(http.StatusOK, gin.H{
		"authenticated": sess.Authenticated(),
		"verify_email":  sess.VerifyEmail,
		"username":      sess.Username,
	})
}
