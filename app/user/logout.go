package user

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func UserLogout(c *gin.Context, _ *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	middleware.Session(c).Clear(false)
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You have been logged out",
	})
}
