package user

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resendBody struct {
	Email string `json:"email" form:"email"`
}

func UserResend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resendBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&data); err != nil {
			status, msg := middleware.BindError(err)
			c.JSON(status, gin.H{
				"error":     msg,
				"requestID": requestID,
			})

			zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	email, ok := pendingEmail(c, data.Email)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Please register first",
			"requestID": requestID,
		})
		return
	}

	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	if err := d.Accounts.Resend(c.Request.Context(), email); err != nil {
		if errors.Is(err, model.ErrDeliveryUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "Failed to send OTP. Please try again",
				"email":     email,
				"resend":    true,
				"requestID": requestID,
			})

			zap.L().Warn("Failed to deliver resent code", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Database error. Please try again",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reissue code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "New OTP has been sent to your email",
		"email":   email,
	})
}
