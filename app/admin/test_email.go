package admin

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/pkg/middleware"
	"bitwise74/otp-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultTestRecipient = "test@example.com"
	testUsername         = "TestUser"
)

type testEmailBody struct {
	To   string `json:"to" form:"to" validate:"required,email"`
	Kind string `json:"kind" form:"kind" validate:"oneof=otp verified"`
}

// TestEmail sends one of the two templates to an arbitrary address. The OTP
// variant uses a throwaway code that is never stored.
func TestEmail(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if !d.Mail.Configured() {
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"success":   false,
			"message":   "Email not configured. Please set up email first",
			"requestID": requestID,
		})
		return
	}

	var data testEmailBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&data); err != nil {
			status, msg := middleware.BindError(err)
			c.JSON(status, gin.H{
				"success":   false,
				"message":   msg,
				"requestID": requestID,
			})
			return
		}
	}

	if data.To == "" {
		data.To = defaultTestRecipient
	}

	if data.Kind == "" {
		data.Kind = "otp"
	}

	if err := validators.Struct(data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	}

	ctx := c.Request.Context()
	res := gin.H{"success": true}

	switch data.Kind {
	case "verified":
		if err := d.Mailer.SendVerified(ctx, data.To, testUsername); err != nil {
			deliveryFailed(c, requestID, err)
			return
		}

		res["message"] = "Verification success email sent to " + data.To
	default:
		code, err := d.OTP.GenerateCode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":   false,
				"message":   "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to generate test code", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if err := d.Mailer.SendOTP(ctx, data.To, code, d.OTP.TTL()); err != nil {
			deliveryFailed(c, requestID, err)
			return
		}

		res["message"] = "Test OTP email sent to " + data.To
		res["otp"] = code
	}

	c.JSON(http.StatusOK, res)
}

func deliveryFailed(c *gin.Context, requestID string, err error) {
	c.JSON(http.StatusBadGateway, gin.H{
		"success":   false,
		"message":   "Failed to send test email: " + err.Error(),
		"requestID": requestID,
	})

	zap.L().Warn("Test email failed", zap.Error(err), zap.String("requestID", requestID))
}
