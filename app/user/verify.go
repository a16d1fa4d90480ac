package user

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/middleware"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyBody struct {
	Email string `json:"email" form:"email"`
	OTP   string `json:"otp" form:"otp"`
}

func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyBody
	if err := c.ShouldBind(&data); err != nil {
		status, msg := middleware.BindError(err)
		c.JSON(status, gin.H{
			"error":     msg,
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	email, ok := pendingEmail(c, data.Email)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Please register first",
			"requestID": requestID,
		})
		return
	}

	// Keep the pinned email even when the code turns out wrong
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	code := strings.TrimSpace(data.OTP)
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Verification code can't be empty",
			"requestID": requestID,
		})
		return
	}

	_, err := d.Accounts.Verify(c.Request.Context(), email, code)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredential) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid or expired OTP code",
				"email":     email,
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Database error. Please try again",
			"requestID": requestID,
		})

		zap.L().Error("Failed to verify code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	middleware.Session(c).Clear(false)
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully! You can now login",
	})
}

// pendingEmail resolves the address being verified. The session wins; an
// explicit address is pinned into the session so later steps find it.
func pendingEmail(c *gin.Context, explicit string) (string, bool) {
	sess := middleware.Session(c)
	if sess.VerifyEmail != "" {
		return sess.VerifyEmail, true
	}

	if explicit == "" {
		explicit = c.Query("email")
	}

	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return "", false
	}

	sess.VerifyEmail = explicit
	return explicit, true
}
