package admin

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reset deletes every user and every code. The caller's session goes too.
func Reset(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if err := d.Accounts.ResetAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"message":   "Error deleting users. Please try again",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reset store", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	middleware.Session(c).Clear(false)
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	zap.L().Warn("All users deleted", zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All users have been deleted successfully",
	})
}
